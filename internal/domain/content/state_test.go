package content

import "testing"

func TestIsLegalTransition_Table(t *testing.T) {
	legal := map[[2]ModerationState]bool{
		{StateDraft, StatePublished}:       true,
		{StateDraft, StateUnpublished}:     true,
		{StateDraft, StateArchived}:        true,
		{StatePublished, StateUnpublished}: true,
		{StatePublished, StateArchived}:    true,
		{StateUnpublished, StateArchived}:  true,
	}

	for _, current := range States {
		for _, target := range States {
			want := legal[[2]ModerationState{current, target}]
			if got := IsLegalTransition(current, target); got != want {
				t.Errorf("IsLegalTransition(%s, %s) = %v, want %v", current, target, got, want)
			}
		}
	}
}

func TestIsLegalTransition_Irreflexive(t *testing.T) {
	for _, state := range States {
		if IsLegalTransition(state, state) {
			t.Errorf("IsLegalTransition(%s, %s) must be false", state, state)
		}
	}
}

func TestIsLegalTransition_UnknownStates(t *testing.T) {
	if IsLegalTransition("bogus", StatePublished) {
		t.Error("unknown current state must not transition")
	}
	if IsLegalTransition(StateArchived, StatePublished) {
		t.Error("archived is terminal")
	}
}
