package cobra

import (
	"bytes"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCmd_RegistersSubcommands(t *testing.T) {
	cmd := NewRootCmd()
	for _, name := range []string{"mine", "checkout", "report", "projects", "version"} {
		sub, _, err := cmd.Find([]string{name})
		if err != nil || sub == cmd {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestRootCmd_UnknownCommand(t *testing.T) {
	_, _, err := execute(t, "excavate")
	if err == nil {
		t.Fatal("unknown command must fail")
	}
}

func TestVersionCmd(t *testing.T) {
	stdout, _, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "bugmine") {
		t.Fatalf("version output = %q", stdout)
	}
}

func TestMineCmd_RequiresProject(t *testing.T) {
	_, _, err := execute(t, "mine")
	if err == nil {
		t.Fatal("mine without a project must fail")
	}
}
