package main

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/AnatoleLucet/bounce/internal/scenario"
)

var (
	colorPink     = lipgloss.Color("205")
	colorDarkGray = lipgloss.Color("240")
	colorCyan     = lipgloss.Color("212")
	colorPurple   = lipgloss.Color("99")
	colorRed      = lipgloss.Color("196")
	colorGreen    = lipgloss.Color("42")
)

var (
	TitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorPink)
	DispatchStyle = lipgloss.NewStyle().Bold(true)
	ListenerStyle = lipgloss.NewStyle().Foreground(colorCyan)
	ActionStyle   = lipgloss.NewStyle().Foreground(colorPurple)
	DefaultStyle  = lipgloss.NewStyle().Foreground(colorGreen)
	TurnStyle     = lipgloss.NewStyle().Foreground(colorDarkGray)
	ErrorStyle    = lipgloss.NewStyle().Foreground(colorRed)
)

func styleFor(kind scenario.Kind) lipgloss.Style {
	switch kind {
	case scenario.KindDispatch:
		return DispatchStyle
	case scenario.KindListener:
		return ListenerStyle
	case scenario.KindAction:
		return ActionStyle
	case scenario.KindDefault:
		return DefaultStyle
	case scenario.KindError:
		return ErrorStyle
	default:
		return TurnStyle
	}
}
