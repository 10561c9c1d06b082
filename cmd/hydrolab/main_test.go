package main

import (
	"testing"
)

func TestCommandTree(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{
		"status", "step", "reset", "inject", "heatwave", "grid", "flow",
		"targets", "select", "lessons", "lesson", "deploy", "costs",
		"compliance", "trend", "export",
	} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("command %q not registered: %v", name, err)
			continue
		}
		if cmd.RunE == nil {
			t.Errorf("command %q has no run function", name)
		}
	}
}

func TestIntensityDefaultsAreIndependent(t *testing.T) {
	root := newRootCmd()

	heat, _, err := root.Find([]string{"heatwave"})
	if err != nil {
		t.Fatalf("heatwave: %v", err)
	}
	deploy, _, err := root.Find([]string{"deploy"})
	if err != nil {
		t.Fatalf("deploy: %v", err)
	}

	hf := heat.Flags().Lookup("intensity")
	df := deploy.Flags().Lookup("intensity")
	if hf == nil || df == nil {
		t.Fatal("both commands should carry an intensity flag")
	}
	if hf.DefValue != "5" {
		t.Errorf("heatwave intensity default = %s, want 5", hf.DefValue)
	}
	if df.DefValue != "1" {
		t.Errorf("deploy intensity default = %s, want 1", df.DefValue)
	}
	if hf.Value == df.Value {
		t.Error("heatwave and deploy must not share one intensity variable")
	}
	if hf.Value.String() != "5" {
		t.Errorf("registering deploy's flag clobbered heatwave's value: %s", hf.Value.String())
	}
}
