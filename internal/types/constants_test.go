package types

import (
	"testing"
)

func TestBuildTypeValidate(t *testing.T) {
	tests := []struct {
		name    string
		bt      BuildType
		wantErr bool
	}{
		{"release valid", BuildRelease, false},
		{"debug valid", BuildDebug, false},
		{"empty means release", "", false},
		{"invalid value", "staging", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bt.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("BuildType.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuildTypeString(t *testing.T) {
	tests := []struct {
		bt   BuildType
		want string
	}{
		{BuildRelease, "release"},
		{BuildDebug, "debug"},
		{"", "release"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.bt.String(); got != tt.want {
				t.Errorf("BuildType.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildTypeIsDebug(t *testing.T) {
	if !BuildDebug.IsDebug() {
		t.Error("debug.IsDebug() should be true")
	}
	if BuildRelease.IsDebug() {
		t.Error("release.IsDebug() should be false")
	}
	if BuildType("").IsDebug() {
		t.Error("empty build type should not be debug")
	}
}

func TestParseBuildType(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    BuildType
		wantErr bool
	}{
		{"debug lowercase", "debug", BuildDebug, false},
		{"debug uppercase", "DEBUG", BuildDebug, false},
		{"release padded", "  release ", BuildRelease, false},
		{"empty", "", BuildRelease, false},
		{"invalid", "beta", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBuildType(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseBuildType() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParseBuildType() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAllBuildTypes(t *testing.T) {
	types := AllBuildTypes()
	if len(types) != 2 {
		t.Errorf("AllBuildTypes() returned %d types, want 2", len(types))
	}
}

func TestSchemeIsSecure(t *testing.T) {
	if !SchemeHTTPS.IsSecure() {
		t.Error("https should be secure")
	}
	if SchemeHTTP.IsSecure() {
		t.Error("http should not be secure")
	}
}

func TestResultCodeString(t *testing.T) {
	if got := ResultNeedsUnknownSourcesPermission.String(); got != "NEEDS_UNKNOWN_SOURCES_PERMISSION" {
		t.Errorf("ResultCode.String() = %v", got)
	}
}

func TestLogFormatValidate(t *testing.T) {
	tests := []struct {
		name    string
		f       LogFormat
		wantErr bool
	}{
		{"json", LogFormatJSON, false},
		{"console", LogFormatConsole, false},
		{"empty", "", false},
		{"invalid", "xml", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.f.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("LogFormat.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if LogFormat("").String() != "console" {
		t.Error("empty log format should default to console")
	}
}

func TestLogLevelValidate(t *testing.T) {
	tests := []struct {
		name    string
		l       LogLevel
		wantErr bool
	}{
		{"debug", LogLevelDebug, false},
		{"info", LogLevelInfo, false},
		{"warn", LogLevelWarn, false},
		{"error", LogLevelError, false},
		{"mixed case", "DeBuG", false},
		{"empty", "", false},
		{"invalid", "trace", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.l.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("LogLevel.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if LogLevel("WARN").String() != "warn" {
		t.Error("LogLevel.String() should lower-case")
	}
	if len(AllLogLevels()) != 4 {
		t.Error("AllLogLevels() should return 4 levels")
	}
}
