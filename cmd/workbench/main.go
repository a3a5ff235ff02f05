// Command workbench is a developer TUI over the text/tokenizer core: it
// loads a story file's memory image and lets you drive decode, encode,
// tokenize/dictionary-lookup and output-capture interactively. It does not
// implement opcode decode/dispatch - this is tooling for exercising the
// CORE, not a story-file player.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/gozcore/ztext/charsetconfig"
	"github.com/gozcore/ztext/dictionary"
	"github.com/gozcore/ztext/tokenizer"
	"github.com/gozcore/ztext/transcript"
	"github.com/gozcore/ztext/zcore"
	"github.com/gozcore/ztext/zoutput"
	"github.com/gozcore/ztext/zstring"
)

var (
	romFilePath     string
	charsetYamlPath string
)

func init() {
	flag.StringVar(&romFilePath, "rom", "", "path to a Z-machine story file")
	flag.StringVar(&charsetYamlPath, "charset", "", "optional YAML file overriding the extras/alphabet tables")
	flag.Parse()
}

func main() {
	if romFilePath == "" {
		fmt.Println("usage: workbench -rom <path> [-charset <path>]")
		os.Exit(1)
	}

	romBytes, err := os.ReadFile(romFilePath)
	if err != nil {
		fmt.Printf("failed to read %s: %v\n", romFilePath, err)
		os.Exit(1)
	}

	model, err := newWorkbenchModel(romBytes)
	if err != nil {
		fmt.Printf("failed to load story: %v\n", err)
		os.Exit(1)
	}

	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		fmt.Println("Error running program:", err)
		os.Exit(1)
	}
}

// hostIO is a minimal zoutput.IOCollaborator for the workbench: screen and
// transcript writes are discarded (handleLine echoes plain lines into the
// scrollback itself, and the transcript recorder taps the Router directly)
// and the command-echo flag is tracked but unused by this tool.
type hostIO struct {
	transcripting bool
	echoing       bool
}

func (h *hostIO) PutChar(r rune)               {}
func (h *hostIO) PutString(s string)           {}
func (h *hostIO) PutTranscriptChar(r rune)     {}
func (h *hostIO) PutTranscriptString(s string) {}
func (h *hostIO) SetTranscripting(on bool)     { h.transcripting = on }
func (h *hostIO) Transcripting() bool          { return h.transcripting }
func (h *hostIO) SetWritingCommandsToFile(on bool) { h.echoing = on }
func (h *hostIO) WritingCommandsToFile() bool      { return h.echoing }

// scratchMemory is a small zcore.Memory backed by a plain byte slice, used
// to host a synthetic read/parse buffer pair for the /tokenize command
// without disturbing the loaded story's own memory image.
type scratchMemory struct {
	bytes []uint8
}

func (m *scratchMemory) GetByte(addr uint32) uint8  { return m.bytes[addr] }
func (m *scratchMemory) GetWord(addr uint32) uint16 { return uint16(m.bytes[addr])<<8 | uint16(m.bytes[addr+1]) }
func (m *scratchMemory) GetBytes(addr uint32, length int, dst []byte, dstOffset int) {
	copy(dst[dstOffset:dstOffset+length], m.bytes[addr:addr+uint32(length)])
}
func (m *scratchMemory) SetByte(addr uint32, v uint8) { m.bytes[addr] = v }
func (m *scratchMemory) SetWord(addr uint32, v uint16) {
	m.bytes[addr] = byte(v >> 8)
	m.bytes[addr+1] = byte(v)
}
func (m *scratchMemory) SetWordChecked(addr uint32, v uint16) error {
	m.SetWord(addr, v)
	return nil
}
func (m *scratchMemory) Version() uint8                   { return 0 }
func (m *scratchMemory) RomStart() uint32                 { return uint32(len(m.bytes)) }
func (m *scratchMemory) DictionaryBase() uint32           { return 0 }
func (m *scratchMemory) AbbreviationTableBase() uint32    { return 0 }
func (m *scratchMemory) AlphabetTableBase() uint32        { return 0 }
func (m *scratchMemory) ExtrasTableBase() uint32          { return 0 }
func (m *scratchMemory) TerminatingCharTableBase() uint32 { return 0 }

type workbenchModel struct {
	mem       *zcore.Core
	charSet   *zstring.CharSet
	alphabets *zstring.Alphabets
	dict      *dictionary.Dictionary

	io        *hostIO
	router    *zoutput.Router
	recorder  *transcript.Recorder

	log      strings.Builder
	viewport viewport.Model
	input    textinput.Model
	ready    bool
}

func newWorkbenchModel(romBytes []byte) (*workbenchModel, error) {
	mem := zcore.LoadCore(romBytes)

	charSet, alphabets := zstring.LoadExtras(mem), zstring.LoadAlphabets(mem)
	if charsetYamlPath != "" {
		var err error
		charSet, alphabets, err = charsetconfig.Load(charsetYamlPath)
		if err != nil {
			return nil, err
		}
	}

	var dict *dictionary.Dictionary
	if base := mem.DictionaryBase(); base != 0 {
		d, err := dictionary.Load(mem, base, true)
		if err != nil {
			return nil, fmt.Errorf("loading built-in dictionary: %w", err)
		}
		dict = d
	}

	io := &hostIO{}
	router := zoutput.New(mem, io, charSet)
	recorder := transcript.New()
	router.SetTranscriptTap(recorder.Observe)

	ti := textinput.New()
	ti.Focus()
	ti.Prompt = "> "
	ti.Width = 60

	m := &workbenchModel{
		mem:       mem,
		charSet:   charSet,
		alphabets: alphabets,
		dict:      dict,
		io:        io,
		router:    router,
		recorder:  recorder,
		input:     ti,
	}
	m.appendLog(fmt.Sprintf("loaded %s (version %d, %d bytes). Commands: /decode /encode /abbrev /lookup /tokenize /capture /endcapture /transcript", romFilePath, mem.Version(), len(romBytes)))
	return m, nil
}

func (m *workbenchModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *workbenchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		headerHeight := 1
		inputHeight := 1
		vpHeight := msg.Height - headerHeight - inputHeight
		if !m.ready {
			m.viewport = viewport.New(msg.Width, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = vpHeight
		}
		m.input.Width = msg.Width - 2
		m.syncViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			line := m.input.Value()
			m.input.SetValue("")
			m.handleLine(line)
			m.syncViewport()
			m.viewport.GotoBottom()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *workbenchModel) View() string {
	if !m.ready {
		return "loading..."
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), m.input.View())
}

func (m *workbenchModel) appendLog(s string) {
	m.log.WriteString(s)
	m.log.WriteString("\n")
}

func (m *workbenchModel) syncViewport() {
	m.viewport.SetContent(wordwrap.String(m.log.String(), m.viewport.Width))
}

// handleLine dispatches a submitted line to a slash command, or treats it
// as plain text flowing through the Output Router (§4.4).
func (m *workbenchModel) handleLine(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if !strings.HasPrefix(line, "/") {
		m.router.PutString(line)
		if !m.router.TableOutput() {
			m.appendLog(line)
		}
		return
	}

	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/decode":
		m.cmdDecode(args)
	case "/encode":
		m.cmdEncode(line)
	case "/abbrev":
		m.cmdAbbrev(args)
	case "/lookup":
		m.cmdLookup(args)
	case "/tokenize":
		m.cmdTokenize(line)
	case "/capture":
		m.cmdCapture(args)
	case "/endcapture":
		m.cmdEndCapture()
	case "/transcript":
		m.cmdTranscript(args)
	default:
		m.appendLog(fmt.Sprintf("unknown command %q", cmd))
	}
}

func (m *workbenchModel) cmdDecode(args []string) {
	if len(args) != 1 {
		m.appendLog("usage: /decode <addr>")
		return
	}
	addr, err := strconv.ParseUint(args[0], 0, 32)
	if err != nil {
		m.appendLog(fmt.Sprintf("bad address: %v", err))
		return
	}
	s, n, err := zstring.Decode(m.mem, uint32(addr), m.alphabets, m.charSet, m.mem.AbbreviationTableBase())
	if err != nil {
		m.appendLog(fmt.Sprintf("decode error: %v", err))
		return
	}
	m.appendLog(fmt.Sprintf("%d bytes: %q", n, s))
}

func (m *workbenchModel) cmdEncode(line string) {
	text := strings.TrimSpace(strings.TrimPrefix(line, "/encode"))
	encoded, err := zstring.EncodeBytes([]byte(text), m.alphabets, m.charSet, 0)
	if err != nil {
		m.appendLog(fmt.Sprintf("encode error: %v", err))
		return
	}
	m.appendLog(fmt.Sprintf("% x", encoded))
}

func (m *workbenchModel) cmdAbbrev(args []string) {
	if len(args) != 2 {
		m.appendLog("usage: /abbrev <z 1-3> <x 0-31>")
		return
	}
	z, err1 := strconv.ParseUint(args[0], 10, 8)
	x, err2 := strconv.ParseUint(args[1], 10, 8)
	if err1 != nil || err2 != nil {
		m.appendLog("z and x must be small integers")
		return
	}
	s, err := zstring.FindAbbreviation(m.mem, m.mem.AbbreviationTableBase(), m.alphabets, m.charSet, uint8(z), uint8(x))
	if err != nil {
		m.appendLog(fmt.Sprintf("abbreviation error: %v", err))
		return
	}
	m.appendLog(fmt.Sprintf("abbrev[%d,%d] = %q", z, x, s))
}

func (m *workbenchModel) cmdLookup(args []string) {
	if m.dict == nil {
		m.appendLog("no built-in dictionary in this story")
		return
	}
	if len(args) != 1 {
		m.appendLog("usage: /lookup <word>")
		return
	}
	key, err := dictionary.EncodeKey([]byte(args[0]), m.alphabets, m.charSet)
	if err != nil {
		m.appendLog(fmt.Sprintf("encode error: %v", err))
		return
	}
	addr := m.dict.Find(key)
	m.appendLog(fmt.Sprintf("%q -> dictionary address 0x%04x", args[0], addr))
}

func (m *workbenchModel) cmdTokenize(line string) {
	if m.dict == nil {
		m.appendLog("no built-in dictionary in this story")
		return
	}
	text := strings.TrimSpace(strings.TrimPrefix(line, "/tokenize"))
	if len(text) > 250 {
		text = text[:250]
	}

	scratch := &scratchMemory{bytes: make([]uint8, 512)}
	scratch.SetByte(0, uint8(len(text)))
	scratch.SetByte(1, uint8(len(text)))
	copy(scratch.bytes[2:], []byte(text))

	scratch.SetByte(300, 16) // max tokens

	tokenizer.Tokenize(scratch, 0, 300, m.dict, m.dict, m.alphabets, m.charSet, false)

	count := scratch.GetByte(301)
	m.appendLog(fmt.Sprintf("tokenized %d words:", count))
	for i := 0; i < int(count); i++ {
		quad := 302 + i*4
		wordAddr := scratch.GetWord(uint32(quad))
		length := scratch.GetByte(uint32(quad + 2))
		offset := scratch.GetByte(uint32(quad + 3))
		m.appendLog(fmt.Sprintf("  [%d] addr=0x%04x len=%d offset=%d", i, wordAddr, length, offset))
	}
}

func (m *workbenchModel) cmdCapture(args []string) {
	if len(args) != 1 {
		m.appendLog("usage: /capture <addr>")
		return
	}
	addr, err := strconv.ParseUint(args[0], 0, 32)
	if err != nil {
		m.appendLog(fmt.Sprintf("bad address: %v", err))
		return
	}
	if err := m.router.SetOutputStream(3, uint32(addr)); err != nil {
		m.appendLog(fmt.Sprintf("capture error: %v", err))
		return
	}
	m.appendLog(fmt.Sprintf("capturing stream 3 to 0x%04x - subsequent plain lines are captured, not shown", addr))
}

func (m *workbenchModel) cmdEndCapture() {
	if err := m.router.SetOutputStream(-3, 0); err != nil {
		m.appendLog(fmt.Sprintf("capture error: %v", err))
		return
	}
	m.appendLog("capture flushed")
}

func (m *workbenchModel) cmdTranscript(args []string) {
	if len(args) != 1 {
		m.appendLog(fmt.Sprintf("transcript recording: %v, %d bytes raw, %d bytes compressed", m.recorder.Enabled(), m.recorder.BytesRecorded(), m.recorder.CompressedBytes()))
		return
	}
	switch args[0] {
	case "on":
		m.recorder.Enable()
		m.io.SetTranscripting(true)
	case "off":
		m.recorder.Disable()
		m.io.SetTranscripting(false)
	case "show":
		m.appendLog(m.recorder.Transcript())
	default:
		m.appendLog("usage: /transcript [on|off|show]")
	}
}
