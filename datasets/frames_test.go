package datasets

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

var imageExts = []string{".png", ".jpg", ".jpeg"}

func TestIndexFrames_SceneTokenAndOrder(t *testing.T) {
	paths := []string{"e/images/scene3.png", "e/images/scene1.png", "e/images/scene2.png"}

	idx := IndexFrames(paths, imageExts, "scene")

	if diff := cmp.Diff([]int{1, 2, 3}, idx.Frames()); diff != "" {
		t.Fatalf("frames mismatch (-want +got):\n%s", diff)
	}
	if got := idx.Stems[2]; got != "scene2" {
		t.Fatalf("stem of frame 2: got %q want %q", got, "scene2")
	}
	if got := idx.Paths[3]; got != "e/images/scene3.png" {
		t.Fatalf("path of frame 3: got %q", got)
	}
}

func TestIndexFrames_RejectsNonNumericStems(t *testing.T) {
	paths := []string{"0.png", "abc.png", "notes.txt", "7.JPG", "scene.png"}

	idx := IndexFrames(paths, imageExts, "scene")

	if diff := cmp.Diff([]int{0, 7}, idx.Frames()); diff != "" {
		t.Fatalf("frames mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"abc.png", "scene.png"}, idx.Rejected); diff != "" {
		t.Fatalf("rejected mismatch (-want +got):\n%s", diff)
	}
	if got := idx.Stems[7]; got != "7" {
		t.Fatalf("stem of upper-case extension: got %q want %q", got, "7")
	}
}

// Two names for the same frame: the later path wins and the collision is
// counted, never reported as an error.
func TestIndexFrames_LastWriterWins(t *testing.T) {
	paths := []string{"images/01.png", "images/1.png", "images/2.png"}

	idx := IndexFrames(paths, imageExts, "scene")

	if idx.Len() != 2 {
		t.Fatalf("expected 2 frames, got %d", idx.Len())
	}
	if got := idx.Paths[1]; got != "images/1.png" {
		t.Fatalf("frame 1: got %q want images/1.png", got)
	}
	if got := idx.Stems[1]; got != "1" {
		t.Fatalf("stem of frame 1: got %q want 1", got)
	}
	if idx.Collisions != 1 {
		t.Fatalf("expected 1 collision, got %d", idx.Collisions)
	}
	if len(idx.Rejected) != 0 {
		t.Fatalf("collisions must not reject files: %v", idx.Rejected)
	}
}

func TestIndexFrames_NoSceneToken(t *testing.T) {
	idx := IndexFrames([]string{"scene4.png", "5.png"}, imageExts, "")
	if diff := cmp.Diff([]int{5}, idx.Frames()); diff != "" {
		t.Fatalf("frames mismatch (-want +got):\n%s", diff)
	}
}
