package services

import (
	"encoding/json"
	"testing"
)

func intPtr(v int) *int { return &v }

func TestStateStoreSlideChange(t *testing.T) {
	store := NewStateStore()

	for _, slide := range []int{3, 1, 7} {
		store.SetSlide(slide)
	}

	if got := store.CurrentSlide(); got != 7 {
		t.Errorf("CurrentSlide = %d, want 7 (last write wins)", got)
	}
}

func TestStateStoreAnnotationTargetsCurrentSlide(t *testing.T) {
	store := NewStateStore()
	store.SetSlide(4)

	store.SetAnnotation(nil, json.RawMessage(`"ink"`))

	snap := store.Snapshot()
	if string(snap.Annotations[4]) != `"ink"` {
		t.Errorf("annotation not recorded under current slide: %v", snap.Annotations)
	}

	// Explicit slide index wins over the current slide.
	store.SetAnnotation(intPtr(9), json.RawMessage(`"margin"`))
	snap = store.Snapshot()
	if string(snap.Annotations[9]) != `"margin"` {
		t.Errorf("annotation not recorded under explicit slide: %v", snap.Annotations)
	}
	if store.CurrentSlide() != 4 {
		t.Errorf("explicit-slide annotation must not move the current slide")
	}
}

func TestStateStoreAnnotationReplaceNotMerge(t *testing.T) {
	store := NewStateStore()

	store.SetAnnotation(intPtr(2), json.RawMessage(`{"stroke":1}`))
	store.SetAnnotation(intPtr(2), json.RawMessage(`{"stroke":2}`))

	snap := store.Snapshot()
	if string(snap.Annotations[2]) != `{"stroke":2}` {
		t.Errorf("annotation update must replace, got %s", snap.Annotations[2])
	}
}

func TestStateStoreClearLeavesSlideAbsent(t *testing.T) {
	store := NewStateStore()
	store.SetSlide(5)
	store.SetAnnotation(nil, json.RawMessage(`"ink"`))

	store.ClearAnnotation(nil)

	snap := store.Snapshot()
	if _, present := snap.Annotations[5]; present {
		t.Error("cleared slide must be absent from the map, not empty")
	}
}

func TestStateStoreSurveyShowAndClose(t *testing.T) {
	store := NewStateStore()

	store.ShowSurvey(json.RawMessage(`{"question":"Q"}`))
	if snap := store.Snapshot(); string(snap.ActiveSurvey) != `{"question":"Q"}` {
		t.Errorf("ActiveSurvey = %s", snap.ActiveSurvey)
	}

	store.HideSurvey()
	if snap := store.Snapshot(); snap.ActiveSurvey != nil {
		t.Errorf("ActiveSurvey should be cleared, got %s", snap.ActiveSurvey)
	}
}

func TestStateStoreSnapshotIsACopy(t *testing.T) {
	store := NewStateStore()
	store.SetAnnotation(intPtr(1), json.RawMessage(`"a"`))

	snap := store.Snapshot()
	store.SetAnnotation(intPtr(1), json.RawMessage(`"b"`))
	store.SetAnnotation(intPtr(2), json.RawMessage(`"c"`))

	if string(snap.Annotations[1]) != `"a"` {
		t.Error("snapshot must not observe later annotation writes")
	}
	if _, present := snap.Annotations[2]; present {
		t.Error("snapshot must not grow new entries after the read")
	}
}
