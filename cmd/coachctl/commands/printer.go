package commands

import (
	"os"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
)

func printSuccess(format string, a ...any) {
	green.Printf("✓ "+format+"\n", a...)
}

func printWarning(format string, a ...any) {
	yellow.Printf("! "+format+"\n", a...)
}

func printError(err error) {
	red.Fprintf(os.Stderr, "错误: %v\n", err)
}

func printHeading(format string, a ...any) {
	cyan.Printf(format+"\n", a...)
}
