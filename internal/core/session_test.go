package core

import "testing"

func TestNewSessionDefaults(t *testing.T) {
	today := NewDate(2024, 5, 1)
	s := NewSession(today)
	if s.Screen != ScreenHome {
		t.Errorf("screen = %s", s.Screen)
	}
	if s.SelectedDate != today || s.Range.Start != today || s.Range.End != today {
		t.Errorf("unexpected defaults %+v", s)
	}
}

func TestSessionSetRangeNormalizes(t *testing.T) {
	s := NewSession(NewDate(2024, 5, 1))
	s.SetRange(NewDate(2024, 5, 10), NewDate(2024, 5, 3))
	if s.Range.Start.String() != "2024-05-03" || s.Range.End.String() != "2024-05-10" {
		t.Fatalf("range = %s", s.Range)
	}
}

func TestDateStrip(t *testing.T) {
	s := NewSession(NewDate(2024, 3, 1))
	strip := s.DateStrip()
	if len(strip) != 2*DateStripRadius+1 {
		t.Fatalf("len = %d", len(strip))
	}
	if strip[0].String() != "2024-02-15" || strip[DateStripRadius].String() != "2024-03-01" || strip[len(strip)-1].String() != "2024-03-16" {
		t.Fatalf("strip = %s .. %s .. %s", strip[0], strip[DateStripRadius], strip[len(strip)-1])
	}
}

func TestSessionViews(t *testing.T) {
	s := NewSession(NewDate(2024, 5, 2))
	if day := s.Day(sample()); len(day) != 1 || day[0].ID != "3" {
		t.Fatalf("day = %+v", day)
	}
	s.SetRange(NewDate(2024, 5, 2), NewDate(2024, 5, 1))
	if rep := s.Earnings(sample()); rep.Total.Kopecks != 350000 {
		t.Fatalf("total = %d", rep.Total.Kopecks)
	}
}

func TestParseScreen(t *testing.T) {
	cases := map[string]Screen{"": ScreenHome, "home": ScreenHome, "earnings": ScreenEarnings, "profile": ScreenProfile}
	for in, want := range cases {
		got, err := ParseScreen(in)
		if err != nil || got != want {
			t.Errorf("ParseScreen(%q) = %s, %v", in, got, err)
		}
	}
	if _, err := ParseScreen("settings"); err == nil {
		t.Error("expected error for unknown screen")
	}
}
