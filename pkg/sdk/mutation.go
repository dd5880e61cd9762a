package sdk

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Mutation sentinels.
var (
	// ErrMutationInFlight rejects a second mutation against a record
	// that already has one pending. The UI must not queue these.
	ErrMutationInFlight = errors.New("a mutation for this upload is already in flight")
	// ErrConfirmationDeclined means the user answered no at the
	// confirmation gate; nothing was sent.
	ErrConfirmationDeclined = errors.New("confirmation declined")
)

// Confirmer is the yes/no gate run before destructive mutations.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(prompt string) (bool, error)

func (f ConfirmFunc) Confirm(prompt string) (bool, error) { return f(prompt) }

// AlwaysConfirm answers yes without prompting (non-interactive mode).
var AlwaysConfirm = ConfirmFunc(func(string) (bool, error) { return true, nil })

// Coordinator performs update/delete against the remote API and
// reconciles the upload list store in place. It owns no collection
// data; local edits are applied through the store's patch/remove
// operations, and only after the server acknowledged success.
//
// In-flight locks are keyed per upload ID, so two different records may
// be mutated concurrently while double submission against one record is
// rejected.
type Coordinator struct {
	client  *Client
	store   *ListStore[UploadRecord]
	confirm Confirmer

	mu     sync.Mutex
	locked map[string]struct{}
}

// NewCoordinator wires a coordinator to the client and list store.
// confirm may be nil, in which case deletes proceed unprompted.
func NewCoordinator(client *Client, store *ListStore[UploadRecord], confirm Confirmer) *Coordinator {
	if confirm == nil {
		confirm = AlwaysConfirm
	}
	return &Coordinator{
		client:  client,
		store:   store,
		confirm: confirm,
		locked:  make(map[string]struct{}),
	}
}

// Locked reports whether a mutation for the upload is in flight.
func (c *Coordinator) Locked(uploadID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.locked[uploadID]
	return ok
}

// RequestDelete deletes an upload after explicit confirmation. On
// server acknowledgment the record is removed from the list store; on
// any failure the store is untouched. The per-record lock is released
// on both outcomes.
func (c *Coordinator) RequestDelete(ctx context.Context, clinicID, uploadID string) error {
	if c.Locked(uploadID) {
		return ErrMutationInFlight
	}

	prompt := fmt.Sprintf("Delete upload #%s from clinic %s? This cannot be undone.", uploadID, clinicID)
	ok, err := c.confirm.Confirm(prompt)
	if err != nil {
		return fmt.Errorf("confirmation failed: %w", err)
	}
	if !ok {
		return ErrConfirmationDeclined
	}

	if err := c.acquire(uploadID); err != nil {
		return err
	}
	defer c.release(uploadID)

	ack, err := c.client.DeleteUpload(ctx, clinicID, uploadID)
	if err != nil {
		return err
	}
	c.store.RemoveLocal(recordKey(ack.ClinicID, ack.UploadID))
	return nil
}

// RequestUpdate patches upload metadata. On acknowledgment exactly the
// fields that were sent are merged into the resident record; never a
// server-echoed superset, so concurrent local edits to unrelated fields
// survive.
func (c *Coordinator) RequestUpdate(ctx context.Context, input UpdateUploadInput) error {
	if c.Locked(input.UploadID) {
		return ErrMutationInFlight
	}
	if err := c.acquire(input.UploadID); err != nil {
		return err
	}
	defer c.release(input.UploadID)

	if err := c.client.UpdateUpload(ctx, input); err != nil {
		return err
	}

	patch := input.Patch
	c.store.ApplyLocalPatch(recordKey(input.ClinicID, input.UploadID), func(u *UploadRecord) {
		if patch.Filename != nil {
			u.Filename = *patch.Filename
		}
		if patch.Status != nil {
			u.Status = *patch.Status
		}
	})
	return nil
}

func (c *Coordinator) acquire(uploadID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.locked[uploadID]; ok {
		return ErrMutationInFlight
	}
	c.locked[uploadID] = struct{}{}
	return nil
}

func (c *Coordinator) release(uploadID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.locked, uploadID)
}

func recordKey(clinicID, uploadID string) string {
	return clinicID + "#" + uploadID
}
