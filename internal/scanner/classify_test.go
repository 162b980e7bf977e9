package scanner

import "testing"

func TestClassify(t *testing.T) {
	baseline := Baseline{StatusCode: 403, BodyLength: 512}

	tests := []struct {
		name   string
		status int
		length int
		want   bool
	}{
		{"identical response", 403, 512, false},
		{"status changed", 401, 512, true},
		{"redirect", 302, 0, true},
		{"length within tolerance", 403, 513, false},
		{"length exactly 100 larger", 403, 612, false},
		{"length exactly 100 smaller", 403, 412, false},
		{"length 101 larger", 403, 613, true},
		{"length 101 smaller", 403, 411, true},
		{"length 138 larger", 403, 650, true},
		{"direct 200", 200, 612, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ProbeResult{StatusCode: tt.status, BodyLength: tt.length}
			if got := Classify(r, baseline); got != tt.want {
				t.Errorf("Classify(%d/%d) = %v, want %v", tt.status, tt.length, got, tt.want)
			}
		})
	}
}

func TestClassify_200AlwaysInteresting(t *testing.T) {
	baseline := Baseline{StatusCode: 200, BodyLength: 1024}
	r := ProbeResult{StatusCode: 200, BodyLength: 1024}
	if !Classify(r, baseline) {
		t.Error("a 200 matching the baseline exactly should still be interesting")
	}
}

func TestClassify_Idempotent(t *testing.T) {
	baseline := Baseline{StatusCode: 403, BodyLength: 300}
	results := []ProbeResult{
		{StatusCode: 403, BodyLength: 300},
		{StatusCode: 403, BodyLength: 401},
		{StatusCode: 500, BodyLength: 0},
		{StatusCode: 200, BodyLength: 300},
	}
	for _, r := range results {
		first := Classify(r, baseline)
		for i := 0; i < 5; i++ {
			if got := Classify(r, baseline); got != first {
				t.Fatalf("Classify(%+v) changed from %v to %v on call %d", r, first, got, i+2)
			}
		}
	}
}
