package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// ScanStatus is the probe state of one chain.
type ScanStatus int

const (
	ScanProbing ScanStatus = iota
	ScanFound
	ScanNoCode
	ScanError
)

// ScanRow holds the probe outcome for one chain.
type ScanRow struct {
	ChainName   string
	DisplayName string
	ChainID     int64
	Status      ScanStatus
	Kind        string   // proxy kind, "direct" for plain contracts
	Selectors   int      // number of dispatcher selectors
	Extensions  []string // detected extension names
	Latency     time.Duration
	ErrMsg      string
}

// ScanResult is sent by each probe when it finishes.
type ScanResult struct {
	ChainName  string
	NoCode     bool
	Kind       string
	Selectors  int
	Extensions []string
	Latency    time.Duration
	Err        error
}

// ScanResultMsg wraps ScanResult as a Bubble Tea message.
type ScanResultMsg ScanResult

type scanTickMsg struct{}

// ScanModel is the Bubble Tea model for probing one address on every chain.
type ScanModel struct {
	Address  string
	Mode     string
	Rows     []ScanRow
	RowIndex map[string]int
	Total    int
	Done     int
	Frame    int
	Sorted   bool
	Quitting bool
	ProbeFn  func(chainName string) tea.Cmd
}

// NewScanModel builds a model with one probing row per chain.
func NewScanModel(address, mode string, rows []ScanRow, probe func(chainName string) tea.Cmd) ScanModel {
	idx := make(map[string]int, len(rows))
	for i, r := range rows {
		idx[r.ChainName] = i
	}
	return ScanModel{
		Address:  address,
		Mode:     mode,
		Rows:     rows,
		RowIndex: idx,
		Total:    len(rows),
		ProbeFn:  probe,
	}
}

func (m ScanModel) Init() tea.Cmd {
	cmds := []tea.Cmd{scanTick()}
	if m.ProbeFn != nil {
		for _, r := range m.Rows {
			cmds = append(cmds, m.ProbeFn(r.ChainName))
		}
	}
	return tea.Batch(cmds...)
}

func scanTick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg {
		return scanTickMsg{}
	})
}

// Found returns the number of chains where the address holds code.
func (m ScanModel) Found() int {
	n := 0
	for _, row := range m.Rows {
		if row.Status == ScanFound {
			n++
		}
	}
	return n
}

func (m ScanModel) failCount() int {
	n := 0
	for _, row := range m.Rows {
		if row.Status == ScanError {
			n++
		}
	}
	return n
}

func (m ScanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Quitting = true
			return m, tea.Quit

		case "r":
			if m.ProbeFn == nil {
				return m, nil
			}
			var cmds []tea.Cmd
			for i := range m.Rows {
				if m.Rows[i].Status == ScanError {
					m.Rows[i].Status = ScanProbing
					m.Rows[i].ErrMsg = ""
					m.Done--
					m.Sorted = false
					cmds = append(cmds, m.ProbeFn(m.Rows[i].ChainName))
				}
			}
			return m, tea.Batch(cmds...)
		}

	case scanTickMsg:
		m.Frame = (m.Frame + 1) % len(spinnerFrames)
		if m.Done >= m.Total && !m.Sorted {
			m.Sorted = true
			m.sortRows()
		}
		return m, scanTick()

	case ScanResultMsg:
		idx, ok := m.RowIndex[msg.ChainName]
		if !ok {
			return m, nil
		}
		row := &m.Rows[idx]
		row.Latency = msg.Latency
		switch {
		case msg.Err != nil:
			row.Status = ScanError
			row.ErrMsg = trimErr(msg.Err.Error())
		case msg.NoCode:
			row.Status = ScanNoCode
		default:
			row.Status = ScanFound
			row.Kind = msg.Kind
			row.Selectors = msg.Selectors
			row.Extensions = msg.Extensions
		}
		m.Done++
	}

	return m, nil
}

// sortRows puts deployments first, then empty chains, then failures, and
// rebuilds the index.
func (m *ScanModel) sortRows() {
	rank := map[ScanStatus]int{ScanFound: 0, ScanNoCode: 1, ScanError: 2, ScanProbing: 3}
	sort.SliceStable(m.Rows, func(i, j int) bool {
		return rank[m.Rows[i].Status] < rank[m.Rows[j].Status]
	})
	for i, r := range m.Rows {
		m.RowIndex[r.ChainName] = i
	}
}

func (m ScanModel) View() string {
	if m.Quitting {
		return ""
	}

	var sb strings.Builder
	spin := spinnerFrames[m.Frame]

	sb.WriteString(StyleTitle.Render(fmt.Sprintf("🔎 %s  ·  mode: %s", m.Address, m.Mode)) + "\n")

	var progress string
	if m.Done >= m.Total {
		progress = StyleSuccess.Render(fmt.Sprintf("✓ %d/%d chains probed · deployed on %d", m.Done, m.Total, m.Found()))
	} else {
		progress = StyleInfo.Render(fmt.Sprintf("%s %d/%d probing…", spin, m.Done, m.Total))
	}
	sb.WriteString(progress + "\n\n")

	const (
		wChain = 18
		wKind  = 18
		wSels  = 10
		wLat   = 8
	)
	sep := StyleMeta.Render(strings.Repeat("─", wChain+wKind+wSels+wLat+40))

	sb.WriteString(
		padR(StyleDim.Render("CHAIN"), wChain) + "  " +
			padR(StyleDim.Render("CONTRACT"), wKind) + "  " +
			padR(StyleDim.Render("SELECTORS"), wSels) + "  " +
			padR(StyleDim.Render("LATENCY"), wLat) + "  " +
			StyleDim.Render("EXTENSIONS") + "\n",
	)
	sb.WriteString(sep + "\n")

	for _, row := range m.Rows {
		kind, sels, lat, exts := renderScanRow(row, spin)
		sb.WriteString(
			padR(ChainName(row.DisplayName), wChain) + "  " +
				padR(kind, wKind) + "  " +
				padR(sels, wSels) + "  " +
				padR(lat, wLat) + "  " +
				exts + "\n",
		)
	}

	sb.WriteString(sep + "\n\n")
	sb.WriteString(scanControls(m.failCount(), m.ProbeFn != nil))
	return sb.String()
}

func renderScanRow(row ScanRow, spin string) (kind, sels, lat, exts string) {
	dash := StyleMeta.Render("—")
	switch row.Status {
	case ScanProbing:
		return StyleMeta.Render(spin + " probing…"), dash, dash, dash

	case ScanNoCode:
		return StyleMeta.Render("no code"), dash, StyleMeta.Render(row.Latency.Truncate(time.Millisecond).String()), dash

	case ScanFound:
		kind = StyleSuccess.Render(row.Kind)
		if row.Kind != "direct" {
			kind = StyleWarning.Render("proxy: " + row.Kind)
		}
		exts = StyleValue.Render(strings.Join(row.Extensions, ", "))
		if len(row.Extensions) == 0 {
			exts = dash
		}
		return kind,
			StyleValue.Render(fmt.Sprintf("%d", row.Selectors)),
			StyleMeta.Render(row.Latency.Truncate(time.Millisecond).String()),
			exts

	case ScanError:
		return StyleError.Render("✗ " + row.ErrMsg), dash, dash, dash
	}
	return "", "", "", ""
}

func scanControls(failed int, canRetry bool) string {
	parts := []string{"[ q ] quit"}
	if canRetry && failed > 0 {
		parts = append(parts, fmt.Sprintf("[ r ] retry %d failed", failed))
	}
	return StyleMeta.Render("  "+strings.Join(parts, "   ")) + "\n"
}
