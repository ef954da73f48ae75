package models

import "testing"

func TestContributionFieldsRoundTrip(t *testing.T) {
	c := &SourceContribution{}
	if got := c.Fields(); got != nil {
		t.Fatalf("empty contribution fields = %v", got)
	}

	c.AppendFields([]string{"description", "image_url"})
	c.AppendFields([]string{"image_url", "organizer"})

	got := c.Fields()
	want := []string{"description", "image_url", "organizer"}
	if len(got) != len(want) {
		t.Fatalf("fields = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("fields = %v, want %v (order preserved, no duplicates)", got, want)
		}
	}
}
