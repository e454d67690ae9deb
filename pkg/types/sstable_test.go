package types

import "testing"

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		filename string
		want     Format
	}{
		{"mc-42-big-TOC.txt", FormatMC},
		{"md-7-big-Statistics.db", FormatMD},
		{"la-3-big-Summary.db", FormatLA},
		{"ka-1-big-Data.db", FormatKA},
		{"/var/lib/scylla/data/ks/t/mc-5-big-TOC.txt", FormatMC},
		// The Scylla.db suffix contains "la"; the format tag must win.
		{"mc-1-big-Scylla.db", FormatMC},
		{"md-9-big-Scylla.db", FormatMD},
		{"ka-2-big-Scylla.db", FormatKA},
	}
	for _, tt := range tests {
		got, err := DetectFormat(tt.filename)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.filename, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: format = %s, want %s", tt.filename, got, tt.want)
		}
	}

	if _, err := DetectFormat("zz-1-big-TOC.txt"); err == nil {
		t.Error("unknown format tag must be rejected")
	}
}

func TestComponentOfAndSibling(t *testing.T) {
	name := "mc-42-big-TOC.txt"
	component, err := ComponentOf(name)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if component != ComponentTOC {
		t.Errorf("component = %s, want %s", component, ComponentTOC)
	}

	got := SiblingComponent(name, component, ComponentStatistics)
	if got != "mc-42-big-Statistics.db" {
		t.Errorf("sibling = %s, want mc-42-big-Statistics.db", got)
	}

	if _, err := ComponentOf("mc-42-big-Unknown.bin"); err == nil {
		t.Error("unknown component must be rejected")
	}
}

func TestOptionalComponent(t *testing.T) {
	for _, c := range []string{ComponentCompressionInfo, ComponentCRC, ComponentDigest} {
		if !OptionalComponent(c) {
			t.Errorf("%s must be optional", c)
		}
	}
	for _, c := range []string{ComponentData, ComponentIndex, ComponentSummary, ComponentStatistics, ComponentTOC} {
		if OptionalComponent(c) {
			t.Errorf("%s must be mandatory", c)
		}
	}
}

func TestGenerationOf(t *testing.T) {
	gen, err := GenerationOf("mc-42-big-TOC.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen != 42 {
		t.Errorf("generation = %d, want 42", gen)
	}

	if _, err := GenerationOf("mc-big-TOC.txt"); err == nil {
		t.Error("filename without generation must be rejected")
	}
}

func TestDescriptorRanges(t *testing.T) {
	d := &SSTableDescriptor{
		Name:         "mc-1-big-TOC.txt",
		MinTimestamp: 100,
		MaxTimestamp: 200,
		FirstToken:   -50,
		LastToken:    50,
	}

	if r := d.TokenRange(); r.First != -50 || r.Last != 50 {
		t.Errorf("token range = %s", r)
	}
	if r := d.TimestampRange(); r.First != 100 || r.Last != 200 {
		t.Errorf("timestamp range = %s", r)
	}

	other := &SSTableDescriptor{MinTimestamp: 200, MaxTimestamp: 300}
	if !d.OverlapsInTimestamp(other) {
		t.Error("touching timestamp windows must overlap")
	}
}
