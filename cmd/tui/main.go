package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"kintu/internal/genesis"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Colors for modern design
var (
	primaryColor   = lipgloss.Color("#7C3AED") // Purple
	secondaryColor = lipgloss.Color("#10B981") // Green
	accentColor    = lipgloss.Color("#F59E0B") // Amber
	surfaceColor   = lipgloss.Color("#1F2937") // Dark gray
	textColor      = lipgloss.Color("#F3F4F6") // Light gray
	mutedColor     = lipgloss.Color("#9CA3AF") // Muted gray
	borderColor    = lipgloss.Color("#374151") // Border gray
)

// Styles
var (
	containerStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor)

	titleStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true).
			Align(lipgloss.Center)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(textColor).
			Background(surfaceColor).
			Padding(0, 1)

	sequenceStyle = lipgloss.NewStyle().
			Foreground(textColor).
			Background(lipgloss.Color("#111827")).
			Padding(1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor)

	hashStyle   = lipgloss.NewStyle().Foreground(secondaryColor).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(mutedColor)
	accentStyle = lipgloss.NewStyle().Foreground(accentColor).Bold(true)
)

type plantRecord struct {
	Key   string
	Entry genesis.PlantEntry
}

type listItem struct {
	record plantRecord
}

func (i listItem) FilterValue() string {
	return i.record.Key + " " + i.record.Entry.NameScientific
}

func (i listItem) Title() string {
	if i.record.Entry.NameIndigenous != "" {
		return i.record.Entry.NameIndigenous
	}
	return i.record.Key
}

func (i listItem) Description() string {
	return fmt.Sprintf("%s    %d bp    %s", i.record.Entry.NameScientific, i.record.Entry.SequenceLengthBP, i.record.Entry.Accession)
}

type mode int

const (
	modeOverview mode = iota
	modeDigest
	modePayload
	modeCultural
)

func (m mode) String() string {
	switch m {
	case modeOverview:
		return "🌿 Overview"
	case modeDigest:
		return "🔐 Digest"
	case modePayload:
		return "📦 Payload"
	case modeCultural:
		return "📜 Cultural"
	default:
		return "Unknown"
	}
}

type model struct {
	list          list.Model
	records       []plantRecord
	merkleRoot    string
	currentMode   mode
	showHelp      bool
	width         int
	height        int
	totalRecords  int
	selectedIndex int
}

// newModel builds the browser from a decoded genesis document. Plants render
// in key order so the list is stable across runs.
func newModel(doc genesis.Document) model {
	keys := make([]string, 0, len(doc.Kintu.Plants))
	for k := range doc.Kintu.Plants {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	records := make([]plantRecord, len(keys))
	items := make([]list.Item, len(keys))
	for i, k := range keys {
		records[i] = plantRecord{Key: k, Entry: doc.Kintu.Plants[k]}
		items[i] = listItem{record: records[i]}
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "K'intu Sacred Plants"
	l.SetShowStatusBar(false)
	l.SetShowPagination(true)
	l.SetFilteringEnabled(true)

	return model{
		list:         l,
		records:      records,
		merkleRoot:   doc.Kintu.MerkleRoot,
		currentMode:  modeOverview,
		totalRecords: len(records),
	}
}

// cycleMode advances to the next view mode, wrapping after cultural.
func (m model) cycleMode() model {
	m.currentMode = (m.currentMode + 1) % 4
	return m
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetWidth(msg.Width / 3)
		m.list.SetHeight(msg.Height - 4)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "h":
			m.showHelp = !m.showHelp
			return m, nil

		case "tab":
			return m.cycleMode(), nil

		case "1":
			m.currentMode = modeOverview
			return m, nil

		case "2":
			m.currentMode = modeDigest
			return m, nil

		case "3":
			m.currentMode = modePayload
			return m, nil

		case "4":
			m.currentMode = modeCultural
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	m.selectedIndex = m.list.Index()
	return m, cmd
}

func (m model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelpModal()
	}

	main := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderLeftPanel(),
		m.renderRightPanel(),
	)
	return lipgloss.JoinVertical(
		lipgloss.Left,
		main,
		m.renderStatusBar(),
	)
}

func (m model) renderLeftPanel() string {
	return containerStyle.
		Width(m.width/3 - 2).
		Height(m.height - 4).
		Render(m.list.View())
}

func (m model) renderRightPanel() string {
	rightWidth := (m.width * 2) / 3

	if len(m.records) == 0 {
		return containerStyle.
			Width(rightWidth - 2).
			Height(m.height - 4).
			Render("No plants in document")
	}
	selectedItem := m.list.SelectedItem()
	if selectedItem == nil {
		return containerStyle.
			Width(rightWidth - 2).
			Height(m.height - 4).
			Render("No plant selected")
	}
	rec := selectedItem.(listItem).record
	e := rec.Entry

	header := titleStyle.Render(fmt.Sprintf("%s — %s (%s)", e.NameIndigenous, e.NameSpiritual, e.NameScientific))
	meta := mutedStyle.Render("Gene: ") + accentStyle.Render(e.Gene) +
		mutedStyle.Render("    Accession: ") + accentStyle.Render(e.Accession) +
		mutedStyle.Render("    ") + accentStyle.Render(fmt.Sprintf("%d bp", e.SequenceLengthBP))

	var content string
	switch m.currentMode {
	case modeOverview:
		content = m.formatBlock("Overview", strings.Join([]string{
			"Sequence length: " + fmt.Sprintf("%d bp", e.SequenceLengthBP),
			"Compressed size: " + fmt.Sprintf("%d bytes (%.2f%% reduction)", e.CompressedSizeBytes, e.CompressionRatioPercent),
			"Verify at:       " + e.VerificationURL,
			"FASTA header:    " + e.FastaHeader,
		}, "\n"))
	case modeDigest:
		content = m.formatBlock("SHA-256 + Merkle", strings.Join([]string{
			"sha256:      " + hashStyle.Render(e.SHA256Hash),
			"merkle root: " + hashStyle.Render(m.merkleRoot),
		}, "\n"))
	case modePayload:
		content = m.formatBlock("2-bit Packed Payload", e.CompressedHex)
	case modeCultural:
		content = m.formatBlock("Cultural Heritage", e.CulturalMeaning+"\n\n"+e.Etymology)
	}

	panelContent := lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		meta,
		"",
		content,
	)
	return containerStyle.
		Width(rightWidth - 2).
		Height(m.height - 4).
		Render(panelContent)
}

func (m model) formatBlock(title, body string) string {
	if body == "" {
		return mutedStyle.Render(fmt.Sprintf("No %s available", strings.ToLower(title)))
	}
	titleStr := lipgloss.NewStyle().
		Foreground(accentColor).
		Bold(true).
		Render(title + ":")
	bodyContent := sequenceStyle.
		Width(m.width*2/3 - 6).
		Render(body)
	return lipgloss.JoinVertical(
		lipgloss.Left,
		titleStr,
		"",
		bodyContent,
	)
}

func (m model) renderStatusBar() string {
	leftInfo := fmt.Sprintf("🌿 %d/%d plants", m.selectedIndex+1, m.totalRecords)
	centerInfo := fmt.Sprintf("Mode: %s", m.currentMode.String())
	rightInfo := "Press 'h' for help • 'q' to quit"

	totalUsed := len(leftInfo) + len(centerInfo) + len(rightInfo)
	spacing := m.width - totalUsed - 6

	var statusContent string
	if spacing > 0 {
		leftSpacing := spacing / 2
		rightSpacing := spacing - leftSpacing
		statusContent = fmt.Sprintf("%s%s%s%s%s",
			leftInfo,
			strings.Repeat(" ", leftSpacing),
			centerInfo,
			strings.Repeat(" ", rightSpacing),
			rightInfo,
		)
	} else {
		statusContent = fmt.Sprintf("%s | %s", leftInfo, centerInfo)
	}
	return statusBarStyle.
		Width(m.width).
		Render(statusContent)
}

func (m model) renderHelpModal() string {
	helpContent := `🌿 K'intu Genesis Browser - Help

Navigation:
  ↑/↓, j/k     Navigate list
  /            Filter plants
  Tab          Cycle view modes

View Modes:
  1            Overview (sizes, verification URL)
  2            SHA-256 digest and Merkle root
  3            2-bit packed payload
  4            Cultural heritage

General:
  h            Toggle this help
  q, Ctrl+C    Quit application

Current Mode: ` + m.currentMode.String() + `
Merkle Root: ` + m.merkleRoot + `
`

	modalStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(primaryColor).
		Padding(1, 2).
		Background(surfaceColor).
		Foreground(textColor).
		Width(72).
		Align(lipgloss.Center)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modalStyle.Render(helpContent),
	)
}

func main() {
	docPath := flag.String("doc", "kintu_genesis_data.json", "path to a generated genesis JSON document")
	flag.Parse()

	f, err := os.Open(*docPath)
	if err != nil {
		log.Fatal(err)
	}
	doc, err := genesis.Decode(f)
	f.Close()
	if err != nil {
		log.Fatal(err)
	}

	p := tea.NewProgram(newModel(doc), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v", err)
		os.Exit(1)
	}
}
