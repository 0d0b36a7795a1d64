package session

import (
	"os"
	"path/filepath"
	"testing"

	"pkt.systems/fotodrop/schema"
)

func TestStatusWithoutCredential(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	status := store.Status()
	if status.IsLoading {
		t.Fatalf("expected loading to be done after construction")
	}
	if status.IsAuthenticated {
		t.Fatalf("expected unauthenticated status")
	}
}

func TestSetCredentialPersistsAcrossStores(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	cred := Credential{Token: "tok-1", UserID: "user-1"}
	if err := store.SetCredential(cred); err != nil {
		t.Fatalf("set credential: %v", err)
	}

	reopened, err := NewStore(dir)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	got, ok := reopened.Credential()
	if !ok {
		t.Fatalf("expected credential to survive reopen")
	}
	if got != cred {
		t.Fatalf("credential mismatch: want %+v got %+v", cred, got)
	}
	if reopened.UserID() != schema.UserID("user-1") {
		t.Fatalf("unexpected user id %q", reopened.UserID())
	}
}

func TestClearRemovesCredential(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.SetCredential(Credential{Token: "tok", UserID: "u"}); err != nil {
		t.Fatalf("set credential: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if store.Status().IsAuthenticated {
		t.Fatalf("expected unauthenticated after clear")
	}
	if _, err := os.Stat(filepath.Join(dir, credentialFile)); !os.IsNotExist(err) {
		t.Fatalf("expected credential file removed, stat err %v", err)
	}
}

func TestUnreadableCredentialIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, credentialFile), []byte("{broken"), 0o600); err != nil {
		t.Fatalf("write bad json: %v", err)
	}
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if store.Status().IsAuthenticated {
		t.Fatalf("expected unauthenticated for unreadable credential")
	}
}

func TestSubscribeNotifiesOnChange(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	var got []Status
	cancel := store.Subscribe(func(status Status) {
		got = append(got, status)
	})
	defer cancel()

	if err := store.SetCredential(Credential{Token: "tok", UserID: "u"}); err != nil {
		t.Fatalf("set credential: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(got))
	}
	if !got[0].IsAuthenticated || got[1].IsAuthenticated {
		t.Fatalf("unexpected notification sequence: %+v", got)
	}

	cancel()
	if err := store.SetCredential(Credential{Token: "tok2", UserID: "u"}); err != nil {
		t.Fatalf("set credential: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected no notification after cancel, got %d", len(got))
	}
}

func TestReloadPicksUpExternalChange(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	notified := 0
	defer store.Subscribe(func(Status) { notified++ })()

	// Another process writes a credential.
	other, err := NewStore(dir)
	if err != nil {
		t.Fatalf("second store: %v", err)
	}
	if err := other.SetCredential(Credential{Token: "tok", UserID: "u"}); err != nil {
		t.Fatalf("set credential: %v", err)
	}

	store.Reload()
	if !store.Status().IsAuthenticated {
		t.Fatalf("expected reload to pick up external credential")
	}
	if notified != 1 {
		t.Fatalf("expected one notification, got %d", notified)
	}

	// A reload with no underlying change stays quiet.
	store.Reload()
	if notified != 1 {
		t.Fatalf("expected no extra notification, got %d", notified)
	}
}
