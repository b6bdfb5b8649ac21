package board

import "testing"

func TestClassic_Layout(t *testing.T) {
	if len(Classic) != Size {
		t.Fatalf("Expected %d spaces, got %d", Size, len(Classic))
	}
	for i, s := range Classic {
		if s.ID != i {
			t.Errorf("Space at index %d has ID %d", i, s.ID)
		}
	}
	if Classic[JailPosition].Type != TypeJail {
		t.Errorf("Expected jail at %d, got %s", JailPosition, Classic[JailPosition].Type)
	}
	if Classic[30].Type != TypeGoToJail {
		t.Errorf("Expected go to jail at 30, got %s", Classic[30].Type)
	}
}

func TestClassic_OwnableSpacesArePriced(t *testing.T) {
	for _, s := range Classic {
		if s.Ownable() && s.Price <= 0 {
			t.Errorf("Ownable space %q has no price", s.Name)
		}
		if !s.Ownable() && s.Price != 0 {
			t.Errorf("Space %q is not ownable but has a price", s.Name)
		}
		if s.Type == TypeTax && s.Amount <= 0 {
			t.Errorf("Tax space %q has no amount", s.Name)
		}
	}
}

func TestClassic_RailroadRentIncreases(t *testing.T) {
	for _, s := range Classic {
		if s.Type != TypeRailroad {
			continue
		}
		if len(s.Rent) != 4 {
			t.Fatalf("Railroad %q should have 4 rent tiers, got %d", s.Name, len(s.Rent))
		}
		for i := 1; i < len(s.Rent); i++ {
			if s.Rent[i] <= s.Rent[i-1] {
				t.Errorf("Railroad %q rent tier %d does not increase", s.Name, i)
			}
		}
	}
}

func TestBoard_SpaceWraps(t *testing.T) {
	if got := Classic.Space(41).ID; got != 1 {
		t.Errorf("Expected Space(41) to be 1, got %d", got)
	}
	if got := Classic.Space(-1).ID; got != 39 {
		t.Errorf("Expected Space(-1) to be 39, got %d", got)
	}
}

func TestBoard_CountOwned(t *testing.T) {
	owned := []int{5, 12, 15, 39, 28}
	if n := Classic.CountOwned(owned, TypeRailroad); n != 2 {
		t.Errorf("Expected 2 railroads, got %d", n)
	}
	if n := Classic.CountOwned(owned, TypeUtility); n != 2 {
		t.Errorf("Expected 2 utilities, got %d", n)
	}
}
