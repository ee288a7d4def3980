// Package shell is a small line-editing command shell for the console.
package shell

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/shlex"
	"golang.org/x/exp/slices"
)

// MaxLine is the longest accepted input line in bytes.
const MaxLine = 512

const (
	bell      = 0x07
	backspace = 0x08
	del       = 0x7F
)

// Command runs one shell command. args[0] is the command name.
type Command func(sh *Shell, args []string) error

type entry struct {
	help string
	run  Command
}

// Shell reads lines from an input stream and dispatches them to registered
// commands. Output is written to a text writer.
type Shell struct {
	in     io.ByteReader
	out    io.Writer
	prompt string
	cmds   map[string]entry
	done   bool
}

// New returns a shell reading from r and echoing to w, with the echo, help
// and exit commands registered.
func New(r io.Reader, w io.Writer, prompt string) *Shell {
	in, ok := r.(io.ByteReader)
	if !ok {
		in = bufio.NewReader(r)
	}
	sh := &Shell{
		in:     in,
		out:    w,
		prompt: prompt,
		cmds:   make(map[string]entry),
	}
	sh.Register("echo", "print the arguments", cmdEcho)
	sh.Register("help", "list commands", cmdHelp)
	sh.Register("exit", "leave the shell", cmdExit)
	return sh
}

// Register adds or replaces a command.
func (sh *Shell) Register(name, help string, run Command) {
	sh.cmds[name] = entry{help: help, run: run}
}

// Printf writes formatted output to the shell's writer.
func (sh *Shell) Printf(format string, a ...any) {
	fmt.Fprintf(sh.out, format, a...)
}

// Exit makes Run return after the current command.
func (sh *Shell) Exit() {
	sh.done = true
}

// ReadLine reads one line with echo and basic editing. Non-printable input
// and overflow ring the bell. Read errors reporting Timeout() == true are
// idle periods: the partial line is kept and reading continues.
func (sh *Shell) ReadLine() (string, error) {
	var line []byte
	for {
		b, err := sh.in.ReadByte()
		if err != nil {
			if isTimeout(err) {
				continue
			}
			return string(line), err
		}

		switch {
		case b == '\r' || b == '\n':
			io.WriteString(sh.out, "\n")
			return string(line), nil
		case b == backspace || b == del:
			if len(line) == 0 {
				sh.out.Write([]byte{bell})
				continue
			}
			line = line[:len(line)-1]
			io.WriteString(sh.out, "\b \b")
		case b >= 0x20 && b < del:
			if len(line) >= MaxLine {
				sh.out.Write([]byte{bell})
				continue
			}
			line = append(line, b)
			sh.out.Write([]byte{b})
		default:
			sh.out.Write([]byte{bell})
		}
	}
}

// Execute tokenizes line and runs the command it names.
func (sh *Shell) Execute(line string) {
	args, err := shlex.Split(line)
	if err != nil {
		sh.Printf("error: %v\n", err)
		return
	}
	if len(args) == 0 {
		return
	}

	cmd, ok := sh.cmds[args[0]]
	if !ok {
		sh.Printf("unknown command: %s\n", args[0])
		return
	}
	if err := cmd.run(sh, args); err != nil {
		sh.Printf("%s: %v\n", args[0], err)
	}
}

// Run prompts, reads and executes lines until exit or a read error. It
// returns nil after exit.
func (sh *Shell) Run() error {
	sh.done = false
	for !sh.done {
		io.WriteString(sh.out, sh.prompt)
		line, err := sh.ReadLine()
		if err != nil {
			return err
		}
		sh.Execute(line)
	}
	return nil
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

func cmdEcho(sh *Shell, args []string) error {
	sh.Printf("%s\n", strings.Join(args[1:], " "))
	return nil
}

func cmdHelp(sh *Shell, args []string) error {
	names := make([]string, 0, len(sh.cmds))
	for name := range sh.cmds {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		sh.Printf("  %-10s %s\n", name, sh.cmds[name].help)
	}
	return nil
}

func cmdExit(sh *Shell, args []string) error {
	sh.Exit()
	return nil
}
