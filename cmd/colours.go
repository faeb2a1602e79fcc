package cmd

import "github.com/fatih/color"

var (
	titleColour   = color.New(color.FgCyan, color.Bold)
	errorColour   = color.New(color.FgRed, color.Bold)
	successColour = color.New(color.FgGreen)
	infoColour    = color.New(color.FgBlue)
	warningColour = color.New(color.FgYellow)
)
