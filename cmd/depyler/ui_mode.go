package main

import (
	"fmt"
	"os"
	"strings"
)

type uiMode string

const (
	uiModeAuto  uiMode = "auto"
	uiModePlain uiMode = "plain"
	uiModeFancy uiMode = "fancy"
)

func readUIMode(value string) (uiMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return uiModeAuto, nil
	case "plain":
		return uiModePlain, nil
	case "fancy":
		return uiModeFancy, nil
	default:
		return "", fmt.Errorf("invalid --ui value %q (expected auto|plain|fancy)", value)
	}
}

func shouldUseFancyUI(mode uiMode) bool {
	switch mode {
	case uiModeFancy:
		return true
	case uiModePlain:
		return false
	default:
		return isTerminal(os.Stdout)
	}
}
