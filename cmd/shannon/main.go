// cmd/shannon is the command-line driver: it wires a source file to
// the compiler package and either runs the resulting module through
// the VM or prints a disassembly of its bytecode.
//
// Grounded on the teacher's cmd/sentra (a hand-rolled os.Args switch
// over many subcommands only a handful of which have any Shannon
// counterpart) but rebuilt on github.com/urfave/cli the way
// kryptco-kr's cmd/kr is, and colored with github.com/fatih/color the
// way kryptco-kr/GlyphLang-GlyphLang color their CLI diagnostics.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli"

	"shannon/internal/compiler"
	"shannon/internal/errors"
	"shannon/internal/scope"
	"shannon/internal/value"
	"shannon/internal/vm"
)

const version = "0.1.0"

func main() {
	app := cli.NewApp()
	app.Name = "shannon"
	app.Usage = "compile and run Shannon modules"
	app.Version = version

	var noColor bool
	app.Flags = []cli.Flag{
		cli.BoolFlag{Name: "no-color", Usage: "disable colored diagnostics", Destination: &noColor},
	}
	app.Before = func(*cli.Context) error {
		color.NoColor = color.NoColor || noColor
		return nil
	}

	app.Commands = []cli.Command{
		{
			Name:      "run",
			Usage:     "compile and execute a module",
			ArgsUsage: "<file.sh>",
			Flags: []cli.Flag{
				cli.BoolFlag{Name: "trace", Usage: "echo every opcode before executing it"},
				cli.BoolFlag{Name: "self-test", Usage: "run the built-in constant-folding and type-algebra suite instead of a file"},
			},
			Action: runAction,
		},
		{
			Name:      "dump",
			Usage:     "compile a module and print its bytecode disassembly",
			ArgsUsage: "<file.sh>",
			Action:    dumpAction,
		},
		{
			Name:   "version",
			Usage:  "print the shannon version",
			Action: func(*cli.Context) error { fmt.Println(version); return nil },
		},
	}

	if err := app.Run(os.Args); err != nil {
		printErr(err)
		os.Exit(1)
	}
}

func printErr(err error) {
	red := color.New(color.FgRed, color.Bold)
	red.Fprintf(os.Stderr, "error: ")
	fmt.Fprintln(os.Stderr, err)
}

func runAction(c *cli.Context) error {
	if c.Bool("self-test") {
		return selfTest()
	}
	if c.NArg() < 1 {
		return cli.NewExitError("run: missing <file.sh>", 2)
	}
	mod, err := compileFile(c.Args().First())
	if err != nil {
		return err
	}
	m := vm.New(mod, os.Stdout)
	m.Trace = c.Bool("trace")
	if err := m.Run(); err != nil {
		return err
	}
	return nil
}

func dumpAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.NewExitError("dump: missing <file.sh>", 2)
	}
	mod, err := compileFile(c.Args().First())
	if err != nil {
		return err
	}
	disassemble(mod)
	return nil
}

func compileFile(path string) (*scope.Module, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Systemf(path, err)
	}
	cc, err := compiler.New(string(src), path, compiler.NewPrelude())
	if err != nil {
		return nil, err
	}
	return cc.Compile()
}

func disassemble(mod *scope.Module) {
	dim := color.New(color.Faint)
	for i := 0; i < mod.Code.Len(); i++ {
		in := mod.Code.At(i)
		fmt.Printf("%04d  %-16s", i, in.Op)
		if in.A != 0 {
			fmt.Printf(" A=%d", in.A)
		}
		if in.Const != 0 {
			fmt.Printf(" const=%d", in.Const)
		}
		if in.Type != nil {
			dim.Printf(" ; %s", in.Type.Name())
		}
		fmt.Println()
	}
}

// selfTest compiles and runs a handful of tiny modules exercising
// constant folding and the ordinal/subrange type algebra, the
// cmd-line counterpart to the original project's embedded unit-test
// harness (main-ut.cpp).
func selfTest() error {
	cases := []struct {
		name   string
		src    string
		varN   string
		expect int64
	}{
		{"const-fold-add", "module t\nconst x = 2 + 3\nvar int y = x\n", "y", 5},
		{"const-fold-mul", "module t\nconst x = 6 * 7\nvar int y = x\n", "y", 42},
		{"subrange-bound", "module t\ndef Digit = 0..9\nconst x = 9\nvar Digit y = x\n", "y", 9},
		{"bool-not", "module t\nconst x = not false\nvar bool y = x\n", "y", 1},
	}
	for _, tc := range cases {
		cc, err := compiler.New(tc.src, tc.name, compiler.NewPrelude())
		if err != nil {
			return errors.Wrap(errors.RuntimeAssert, errors.Location{File: tc.name}, err, "self-test %q failed to parse", tc.name)
		}
		mod, err := cc.Compile()
		if err != nil {
			return errors.Wrap(errors.RuntimeAssert, errors.Location{File: tc.name}, err, "self-test %q failed to compile", tc.name)
		}
		m := vm.New(mod, os.Stdout)
		if err := m.Run(); err != nil {
			return errors.Wrap(errors.RuntimeAssert, errors.Location{File: tc.name}, err, "self-test %q failed to run", tc.name)
		}
		got := findVar(m, tc.varN)
		if got.Raw != tc.expect {
			return errors.New(errors.RuntimeAssert, errors.Location{File: tc.name}, "self-test %q: expected %d, got %d", tc.name, tc.expect, got.Raw)
		}
		fmt.Printf("ok   %s\n", tc.name)
	}
	return nil
}

func findVar(m *vm.VM, name string) value.Value {
	for i, v := range m.Mod.Vars {
		if v.NameStr == name {
			return m.Data[i]
		}
	}
	return value.Zero
}
