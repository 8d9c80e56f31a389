package service

import "testing"

func TestExtractNarration(t *testing.T) {
	cases := []struct {
		name   string
		script string
		source NarrationSource
		want   string
	}{
		{
			name:   "full narration beats legacy narration",
			script: `{"fullNarration":"the new one","narration":"the old one"}`,
			source: SourceFullNarration,
			want:   "the new one",
		},
		{
			name:   "legacy narration",
			script: `{"title":"Pythagoras","steps":[{"text":"x"}],"narration":"legacy text"}`,
			source: SourceLegacyNarration,
			want:   "legacy text",
		},
		{
			name:   "empty narration falls through to steps",
			script: `{"narration":"","steps":[{"text":"A"}]}`,
			source: SourceSteps,
			want:   "A",
		},
		{
			name:   "non-string narration is skipped",
			script: `{"narration":{"text":"nested"},"scenes":[{"text":"S1"},{"text":"S2"}]}`,
			source: SourceScenes,
			want:   "S1. S2",
		},
		{
			name:   "sections joined with a space, empty entries dropped",
			script: `{"sections":[{"narration":"First part."},{"narration":""},{"title":"x"},{"narration":"Second part."}]}`,
			source: SourceSections,
			want:   "First part. Second part.",
		},
		{
			name:   "tts full script",
			script: `{"ttsNarration":{"fullScript":"full tts script","segments":[{"text":"seg"}]}}`,
			source: SourceTTSFullScript,
			want:   "full tts script",
		},
		{
			name:   "tts segments",
			script: `{"ttsNarration":{"segments":[{"text":"one"},{"text":"two"}]}}`,
			source: SourceTTSSegments,
			want:   "one. two",
		},
		{
			name:   "remotion scenes",
			script: `{"remotionScript":{"scenes":[{"text":"r1"},{"text":"r2"}]},"scenes":[{"text":"legacy"}]}`,
			source: SourceRemotionScenes,
			want:   "r1. r2",
		},
		{
			name:   "steps filter blank entries",
			script: `{"steps":[{"text":"A"},{"text":""},{"text":"B"}]}`,
			source: SourceSteps,
			want:   "A. B",
		},
		{
			name:   "steps filter whitespace entries",
			script: `{"steps":[{"text":"A"},{"text":"   "},{"math":"x^2"},{"text":"B"}]}`,
			source: SourceSteps,
			want:   "A. B",
		},
		{
			name:   "unknown object falls back to raw text",
			script: `{"title":"Nothing here"}`,
			source: SourcePlainText,
			want:   `{"title":"Nothing here"}`,
		},
		{
			name:   "invalid json is plain text",
			script: "Just a plain narration about circles.",
			source: SourcePlainText,
			want:   "Just a plain narration about circles.",
		},
		{
			name:   "json array is plain text",
			script: `["a","b"]`,
			source: SourcePlainText,
			want:   `["a","b"]`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractNarration(tc.script)
			if got.Source != tc.source {
				t.Fatalf("source: want=%s got=%s", tc.source, got.Source)
			}
			if got.Text != tc.want {
				t.Fatalf("text: want=%q got=%q", tc.want, got.Text)
			}
		})
	}
}
