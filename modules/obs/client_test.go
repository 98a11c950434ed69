package obs

import (
	"testing"
)

func TestAuthResponse(t *testing.T) {
	// Double sha256+base64 derivation from the v5 protocol.
	got := authResponse("supersecret", "PZVbYpvAnZut2SS6JNJytDm9", "ztTBnnuqrqaKDzRM3xcVdbYm")
	want := "8feeOF01ujNBiQFBqMMiEb6/yB/tJDZyX2sosCp5zLU="
	if got != want {
		t.Fatalf("authResponse = %q, want %q", got, want)
	}
}

func TestNeedsSceneCreation(t *testing.T) {
	scenes := []string{"Scene_A", "Scene_B"}
	if needsSceneCreation(scenes, "Scene_A") {
		t.Fatalf("existing scene must not be recreated")
	}
	if !needsSceneCreation(scenes, "Scene_C") {
		t.Fatalf("missing scene must be created")
	}
	if !needsSceneCreation(nil, "Scene_A") {
		t.Fatalf("empty collection must require creation")
	}
}

func TestNeedsInputCreation(t *testing.T) {
	inputs := []string{"VideoPlayer_A"}
	if needsInputCreation(inputs, "VideoPlayer_A") {
		t.Fatalf("existing input must not be recreated")
	}
	if !needsInputCreation(inputs, "VideoPlayer_B") {
		t.Fatalf("missing input must be created")
	}
}
