package main

import (
	"errors"
	"testing"
)

func TestParseSelection(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    selection
		wantErr bool
	}{
		{
			name: "single metric",
			args: []string{"CPU"},
			want: selection{cpu: true},
		},
		{
			name: "multiple metrics case-insensitive",
			args: []string{"cpu", "Ram", "TEMP"},
			want: selection{cpu: true, memory: true, temp: true},
		},
		{
			name: "disk space and io are distinct",
			args: []string{"DISK", "IO"},
			want: selection{diskSpace: true, diskIO: true},
		},
		{
			name: "net with interface name",
			args: []string{"NET", "Ethernet"},
			want: selection{network: true, networkInterface: "Ethernet"},
		},
		{
			name: "line shorthand is not a metric",
			args: []string{"CPU", "LINE"},
			want: selection{cpu: true},
		},
		{
			name:    "no metrics",
			args:    []string{},
			wantErr: true,
		},
		{
			name:    "line alone selects nothing",
			args:    []string{"LINE"},
			wantErr: true,
		},
		{
			name:    "interface without net",
			args:    []string{"CPU", "Ethernet"},
			wantErr: true,
		},
		{
			name:    "two free-form arguments",
			args:    []string{"NET", "Ethernet", "Wi-Fi"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &flags{}
			got, err := parseSelection(tt.args, f)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				var uerr *usageError
				if !errors.As(err, &uerr) {
					t.Errorf("error %v is not a usage error", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("selection = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseSelection_LineSetsSingleLineFlag(t *testing.T) {
	f := &flags{}
	if _, err := parseSelection([]string{"CPU", "LINE"}, f); err != nil {
		t.Fatal(err)
	}
	if !f.singleLine {
		t.Error("LINE keyword must enable single-line output")
	}
}

func TestParseSelection_InterfaceFlagConflictsWithDifferentPositional(t *testing.T) {
	f := &flags{iface: "Ethernet"}
	if _, err := parseSelection([]string{"NET", "Wi-Fi"}, f); err == nil {
		t.Error("conflicting interface names must be a usage error")
	}
}
