package panel

import (
	"fmt"
	"strings"

	"codeberg.org/afewwords/companion/internal/api"
	"codeberg.org/afewwords/companion/internal/tokens"
)

func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	if m.showWordList() {
		return m.listView()
	}

	return m.welcomeView()
}

func (m *Model) welcomeView() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("A few words"))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render("save the words you meet while reading"))
	b.WriteString("\n\n")
	b.WriteString(wordStyle.Render("Get Started"))
	b.WriteString(infoStyle.Render("  sign in on the website to sync your words"))
	b.WriteString("\n\n")
	b.WriteString(linkStyle.Render("Privacy Policy"))
	b.WriteString("   ")
	b.WriteString(linkStyle.Render("Terms and Conditions"))
	b.WriteString("\n")

	m.writeStatus(&b)

	b.WriteString("\n")
	b.WriteString(m.help.View(welcomeKeys{m.keys}))

	return b.String()
}

func (m *Model) listView() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(greeting(m.tokens.IDToken)))
	b.WriteString("\n")

	state := m.session.Words.State()

	if len(state.Words) == 0 && !state.IsLoading {
		b.WriteString(infoStyle.Render("No words saved yet"))
		b.WriteString("\n")
	}

	for i, word := range state.Words {
		b.WriteString(m.cellView(word, i == m.cursor))
		b.WriteString("\n")
	}

	switch {
	case state.IsLoading:
		b.WriteString(m.spinner.View() + infoStyle.Render(" Loading more..."))
	case state.HasMore:
		b.WriteString(infoStyle.Render("Load Newer (m)"))
	default:
		b.WriteString(infoStyle.Render("Nothing more to load"))
	}
	b.WriteString("\n")

	m.writeStatus(&b)

	b.WriteString("\n")
	b.WriteString(m.help.View(listKeys{m.keys}))

	return b.String()
}

func (m *Model) cellView(word api.WordEntry, selected bool) string {
	var b strings.Builder

	b.WriteString(wordStyle.Render(word.Word))

	if m.deleting[word.ID] {
		b.WriteString(" " + m.spinner.View())
	}

	if word.Definition != "" {
		b.WriteString("\n")
		b.WriteString(m.renderDefinition(word.Definition))
	}

	if word.URL != "" {
		b.WriteString("\n")
		b.WriteString(infoStyle.Render("source available (enter)"))
	}

	style := cellStyle
	if selected {
		style = selectedCellStyle
	}

	if m.width > 4 {
		style = style.Width(m.width - 4)
	}

	return style.Render(b.String())
}

func (m *Model) renderDefinition(definition string) string {
	if m.renderer == nil {
		return definition
	}

	rendered, err := m.renderer.Render(definition)
	if err != nil {
		return definition
	}

	return strings.Trim(rendered, "\n")
}

func (m *Model) writeStatus(b *strings.Builder) {
	if m.status == "" {
		return
	}

	b.WriteString(statusStyle.Render(m.status))
	b.WriteString("\n")
}

func greeting(idToken string) string {
	name := tokens.DisplayName(idToken)
	if name == "" {
		return "Hey! 👋"
	}

	return fmt.Sprintf("Hey! 👋 %s", name)
}
