package graphcontrol

import (
	"context"

	pkgerrors "coursegraph/pkg/errors"
)

// Selection is the dashboard's node selection and delete confirmation state
type Selection struct {
	NodeID      string `json:"nodeId,omitempty"`
	ConfirmOpen bool   `json:"confirmOpen"`
	Deleting    bool   `json:"deleting"`
	Error       string `json:"error,omitempty"`
}

// DeleteFunc deletes the node with the given id on behalf of the session's user
type DeleteFunc func(ctx context.Context, nodeID string) error

// Selection returns a copy of the current selection state
func (s *Store) Selection() Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection
}

// Select makes id the selected node. An empty id clears the selection.
func (s *Store) Select(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection.Deleting {
		return
	}
	s.selection = Selection{NodeID: id}
}

// RequestDelete opens the delete confirmation for the selected node
func (s *Store) RequestDelete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection.NodeID == "" || s.selection.Deleting {
		return false
	}
	s.selection.ConfirmOpen = true
	s.selection.Error = ""
	return true
}

// CancelDelete closes the confirmation and keeps the node selected
func (s *Store) CancelDelete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection.Deleting {
		return
	}
	s.selection.ConfirmOpen = false
	s.selection.Error = ""
}

// ConfirmDelete deletes the selected node with del. On success the selection
// and confirmation clear. On failure the node stays selected, the
// confirmation stays open and the error message is kept for display.
func (s *Store) ConfirmDelete(ctx context.Context, del DeleteFunc) error {
	s.mu.Lock()
	if !s.selection.ConfirmOpen || s.selection.NodeID == "" {
		s.mu.Unlock()
		return pkgerrors.NewValidationError("No node selected for deletion")
	}
	if s.selection.Deleting {
		s.mu.Unlock()
		return pkgerrors.NewValidationError("Delete already in progress")
	}
	id := s.selection.NodeID
	s.selection.Deleting = true
	s.selection.Error = ""
	s.mu.Unlock()

	err := del(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.selection.Deleting = false
		s.selection.Error = pkgerrors.MessageOf(err, "Failed to delete PDF")
		return err
	}
	s.selection = Selection{}
	return nil
}
