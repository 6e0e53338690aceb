package app

import (
	"github.com/dshills/keyloop/internal/input/macro"
	"github.com/dshills/keyloop/internal/store"
)

// Load makes the named sequence current.
func (a *Application) Load(name string) (macro.Sequence, error) {
	seq, err := a.store.Load(name)
	if err != nil {
		return nil, err
	}
	a.session.SetCurrent(seq, name)
	return seq, nil
}

// Save stores the current sequence under name and makes name current.
func (a *Application) Save(name string) error {
	if a.session.IsRecording() {
		return opError("save", name, ErrBusy)
	}
	seq, _ := a.session.Current()
	if err := a.store.Save(name, seq); err != nil {
		return err
	}
	a.session.SetName(name)
	return nil
}

// Delete removes a stored sequence. Deleting the current sequence clears it.
func (a *Application) Delete(name string) error {
	if err := a.store.Delete(name); err != nil {
		return err
	}
	if a.CurrentName() == name {
		a.session.Clear()
	}
	return nil
}

// Rename renames a stored sequence and follows it if it is current.
func (a *Application) Rename(oldName, newName string) error {
	if err := a.store.Rename(oldName, newName); err != nil {
		return err
	}
	if a.CurrentName() == oldName {
		a.session.SetName(newName)
	}
	return nil
}

// Clear discards the current sequence.
func (a *Application) Clear() error {
	if a.session.IsRecording() || a.session.IsPlaying() {
		return opError("clear", "", ErrBusy)
	}
	a.session.Clear()
	return nil
}

// List returns the stored sequence names in order.
func (a *Application) List() ([]string, error) {
	return a.store.List()
}

// LoadAll rescans the sequences directory. Files that fail to load are
// reported in the error and left out of the result.
func (a *Application) LoadAll() (map[string]macro.Sequence, error) {
	return a.store.LoadAll()
}

// Info summarizes a stored sequence.
func (a *Application) Info(name string) (store.Info, error) {
	return a.store.Info(name)
}

// UpdateEvent changes one field of a stored event.
func (a *Application) UpdateEvent(name string, index int, field, value string) error {
	if err := a.store.UpdateEvent(name, index, field, value); err != nil {
		return err
	}
	return a.refresh(name)
}

// RemoveEvent deletes one stored event.
func (a *Application) RemoveEvent(name string, index int) error {
	if err := a.store.RemoveEvent(name, index); err != nil {
		return err
	}
	return a.refresh(name)
}

// refresh reloads name into the session if it is current.
func (a *Application) refresh(name string) error {
	if a.CurrentName() != name {
		return nil
	}
	seq, err := a.store.Load(name)
	if err != nil {
		return opError("refresh", name, err)
	}
	a.session.SetCurrent(seq, name)
	return nil
}
