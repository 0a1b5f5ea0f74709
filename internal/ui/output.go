// Package ui provides colored terminal output helpers.
package ui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

const headerWidth = 60

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	infoColor    = color.New(color.FgBlue)
	warningColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
	stepColor    = color.New(color.FgMagenta, color.Bold)
)

// Header prints a banner with the text centered between rule lines.
func Header(text string) {
	line := strings.Repeat("=", headerWidth)
	headerColor.Println(line)
	headerColor.Println(center(text, headerWidth))
	headerColor.Println(line)
}

// Step prints a numbered progress step.
func Step(current, total int, text string) {
	stepColor.Printf("[%d/%d] ", current, total)
	fmt.Println(text)
}

// Success prints a success message.
func Success(text string) {
	successColor.Printf("✓ %s\n", text)
}

// Info prints an informational message.
func Info(text string) {
	infoColor.Printf("ℹ %s\n", text)
}

// Warning prints a warning message.
func Warning(text string) {
	warningColor.Printf("⚠ %s\n", text)
}

// Error prints an error message.
func Error(text string) {
	errorColor.Printf("✗ %s\n", text)
}

// BlueText prints plain blue text.
func BlueText(text string) {
	infoColor.Println(text)
}

// YellowText prints plain yellow text.
func YellowText(text string) {
	warningColor.Println(text)
}

// center left-pads text toward the middle of width. Text at or beyond the
// width is returned unchanged; no right padding is added.
func center(text string, width int) string {
	if len(text) >= width {
		return text
	}
	padding := (width - len(text)) / 2
	return strings.Repeat(" ", padding) + text
}
