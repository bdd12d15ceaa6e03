package main

import "github.com/jsphweid/voicecut/cmd"

func main() {
	cmd.Execute()
}
