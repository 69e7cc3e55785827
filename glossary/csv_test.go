package glossary

import (
	"bytes"
	"strings"
	"testing"
)

func TestCSVRoundTrip(t *testing.T) {
	g := New("테스트 소설", "korean", "taiwanese")
	g.Add(Term{Original: "이서연", Translation: "李書妍", Category: CategoryCharacter, Context: "주인공"})
	g.Add(Term{Original: "서연", Translation: "書妍", Category: CategoryCharacter})
	g.Add(Term{Original: "마탑", Translation: "魔塔", Category: CategoryLocation})

	var buf bytes.Buffer
	if err := g.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	terms, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if len(terms) != 3 {
		t.Fatalf("got %d terms, want 3", len(terms))
	}

	byOriginal := make(map[string]Term)
	for _, term := range terms {
		byOriginal[term.Original] = term
	}
	if got := byOriginal["이서연"]; got.Translation != "李書妍" || got.Category != CategoryCharacter || got.Context != "주인공" {
		t.Errorf("round-tripped term = %+v", got)
	}
	if got := byOriginal["마탑"]; got.Translation != "魔塔" || got.Category != CategoryLocation {
		t.Errorf("round-tripped term = %+v", got)
	}
}

func TestReadCSVReviewerEdits(t *testing.T) {
	// A reviewer fixed one translation, cleared another (dropping the term),
	// and their spreadsheet re-encoded the file with a BOM.
	input := "\ufeffCategory,Original,Translation,Context\n" +
		"character,이서연,李瑞妍,주인공\n" +
		"character,서연,,\n" +
		",,,\n" +
		"location,마탑,魔塔,\n"

	terms, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if len(terms) != 2 {
		t.Fatalf("got %d terms, want 2", len(terms))
	}
	if terms[0].Original != "이서연" || terms[0].Translation != "李瑞妍" {
		t.Errorf("edited term = %+v", terms[0])
	}
}

func TestReadCSVDefaultCategory(t *testing.T) {
	input := "Category,Original,Translation,Context\n,마나,魔力,\n"
	terms, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if len(terms) != 1 || terms[0].Category != CategoryTerm {
		t.Errorf("terms = %+v", terms)
	}
}

func TestDiff(t *testing.T) {
	oldTerms := []Term{
		{Original: "이서연", Translation: "李書妍", Category: CategoryCharacter},
		{Original: "서연", Translation: "舒妍", Category: CategoryCharacter},
		{Original: "흑검", Translation: "黑劍", Category: CategoryItem},
	}
	newTerms := []Term{
		{Original: "이서연", Translation: "李書妍", Category: CategoryCharacter},
		{Original: "서연", Translation: "書妍", Category: CategoryCharacter}, // edited
		{Original: "마탑", Translation: "魔塔", Category: CategoryLocation},  // added
	}

	d := Diff(oldTerms, newTerms)
	stats := d.Stats()
	if stats.Unchanged != 1 || stats.Modified != 1 || stats.Added != 1 || stats.Removed != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if !d.HasChanges() {
		t.Error("HasChanges = false")
	}
	if d.Modified[0].Old.Translation != "舒妍" || d.Modified[0].New.Translation != "書妍" {
		t.Errorf("modified pair = %+v", d.Modified[0])
	}
	if d.Removed[0].Original != "흑검" {
		t.Errorf("removed = %+v", d.Removed[0])
	}

	same := Diff(oldTerms, oldTerms)
	if same.HasChanges() {
		t.Error("identical lists reported changes")
	}
}
