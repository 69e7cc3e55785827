package novlate_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/HanbitLabs/novlate"
	"github.com/HanbitLabs/novlate/backend"
	"github.com/HanbitLabs/novlate/glossary"
	"github.com/HanbitLabs/novlate/qa"
	"github.com/HanbitLabs/novlate/splitter"
)

const filler = "그는 창밖을 바라보며 오래도록 생각에 잠겼다. 바람이 불었고 거리는 조용했다. " +
	"어제의 일이 아직도 머릿속을 떠나지 않았지만 이제는 앞으로 나아갈 때였다. " +
	"그는 짐을 챙겨 천천히 계단을 내려갔다."

// TestLocalizationFlow drives the full stack end to end with a mock backend:
// split a manuscript, build and enforce a glossary, translate each episode,
// then validate and auto-fix the translations.
func TestLocalizationFlow(t *testing.T) {
	ctx := context.Background()
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	manuscript := "$001\n이서연은 마탑으로 향했다. " + filler + "\n\n" +
		"$002\n서연은 스승을 만났다. " + filler + "\n\n" +
		"$003\n마탑의 문이 닫혔다. " + filler + "\n"

	mock := backend.NewMockBackend()
	mock.Candidates = []novlate.TermCandidate{
		{Original: "이서연", Category: glossary.CategoryCharacter, Context: "주인공"},
		{Original: "서연", Category: glossary.CategoryCharacter},
		{Original: "마탑", Category: glossary.CategoryOrganization},
	}
	mock.Terms["이서연"] = "イ・ソヨン"
	mock.Terms["서연"] = "セヨン" // inconsistent with the full name, enforcement must fix
	mock.Terms["마탑"] = "魔塔"

	// Split. Three line-start markers resolve without backend help.
	s := splitter.New(mock, splitter.WithLogger(quiet), splitter.WithoutTitleExtraction())
	res, err := s.Split(ctx, manuscript, "novel.txt")
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(res.Episodes) != 3 {
		t.Fatalf("Expected 3 episodes, got %d", len(res.Episodes))
	}
	if mock.Calls["detect_pattern"] != 0 {
		t.Errorf("Direct detection should not call the backend, got %d calls", mock.Calls["detect_pattern"])
	}

	// Glossary build: extract, translate term by term, enforce consistency.
	g := glossary.New("달빛 아래", "korean", "japanese")
	candidates, err := mock.ExtractTerms(ctx, novlate.ExtractTermsRequest{SourceLanguage: "korean"})
	if err != nil {
		t.Fatalf("ExtractTerms failed: %v", err)
	}
	for _, c := range g.FilterNew(candidates) {
		translation, err := mock.TranslateTerm(ctx, novlate.TranslateTermRequest{
			Term:           c.Original,
			SourceLanguage: "korean",
			TargetLanguage: "japanese",
			Category:       c.Category,
			Context:        c.Context,
		})
		if err != nil {
			t.Fatalf("TranslateTerm(%q) failed: %v", c.Original, err)
		}
		if len([]rune(translation)) > glossary.TermLengthCeiling(c.Category) {
			t.Fatalf("Term translation too long: %q", translation)
		}
		g.Add(glossary.Term{
			Original:    c.Original,
			Translation: translation,
			Category:    c.Category,
			Context:     c.Context,
		})
	}

	corrected, corrections := glossary.NewEnforcer(glossary.WithEnforcerLogger(quiet)).Enforce(g.Terms, "japanese")
	g.ReplaceTerms(corrected)

	if len(corrections) != 1 {
		t.Fatalf("Expected 1 correction, got %d: %+v", len(corrections), corrections)
	}
	if corrections[0].From != "セヨン" || corrections[0].To != "ソヨン" {
		t.Errorf("Unexpected correction: %+v", corrections[0])
	}
	if g.Translation("서연") != "ソヨン" {
		t.Errorf("Expected enforced translation ソヨン, got %q", g.Translation("서연"))
	}

	// Translate each episode with the glossary threaded into the prompt.
	for i, ep := range res.Episodes {
		mock.Episodes[ep.Content] = "第" + string(rune('0'+i+1)) + "話。ソヨンは魔塔に向かった。"
	}
	prompt := g.FormatForPrompt()
	if !strings.Contains(prompt, "ソヨン") {
		t.Errorf("Formatted glossary missing enforced translation:\n%s", prompt)
	}

	v := qa.NewValidator("korean", "japanese", g, qa.WithValidatorLogger(quiet))
	for _, ep := range res.Episodes {
		translated, err := mock.TranslateEpisode(ctx, novlate.TranslateEpisodeRequest{
			Text:           ep.Content,
			SourceLanguage: "korean",
			TargetLanguage: "japanese",
			Glossary:       prompt,
		})
		if err != nil {
			t.Fatalf("TranslateEpisode(%d) failed: %v", ep.Number, err)
		}
		result := v.Validate(translated, ep.Number)
		if !result.Passed {
			t.Errorf("Episode %d failed QA: %+v", ep.Number, result.Issues)
		}
	}

	// A leaked source segment and an untranslated term get auto-fixed.
	mock.Segments["그는"] = "彼は"
	dirty := "彼女は魔塔に入った。그는 後を追った。마탑の門が閉まった。"
	fixed, result := v.FixLoop(ctx, dirty, 1, 3, mock)
	if !result.Passed {
		t.Fatalf("FixLoop did not converge: %+v", result.Issues)
	}
	if strings.Contains(fixed, "그는") || strings.Contains(fixed, "마탑") {
		t.Errorf("Source text survived auto-fix: %q", fixed)
	}
	if !strings.Contains(fixed, "彼は") || !strings.Contains(fixed, "魔塔") {
		t.Errorf("Unexpected fixed text: %q", fixed)
	}
}
