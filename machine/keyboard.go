package machine

import (
	"os"
	"sync"
	"syscall"
	"time"

	"golang.org/x/term"
)

// KeyboardPort is what the machine needs from a character input device:
// a consuming read and a non-consuming peek of the single latched byte.
type KeyboardPort interface {
	GetLastChar() byte
	PeekLastChar() byte
}

// Keyboard is the background-reader keyboard port (design §4.2, §C2).
// Concurrent calls from the interpreter loop and the reader goroutine
// are serialized by a single mutex around the one-byte slot: there is
// no queueing, keystrokes delivered faster than they're consumed are
// overwritten last-writer-wins.
//
// Start/Stop are grounded on IntuitionEngine's terminal_host.go: raw
// mode via golang.org/x/term, plus a non-blocking poll loop on the fd
// using the stdlib syscall package so Stop can unblock the reader
// without an uninterruptible blocking read.
type Keyboard struct {
	mu   sync.Mutex
	last byte

	fd           int
	nonblockSet  bool
	oldTermState *term.State

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// NewKeyboard creates a keyboard port reading from stdin.
func NewKeyboard() *Keyboard {
	return &Keyboard{fd: int(os.Stdin.Fd())}
}

// Start switches the terminal to raw, no-echo mode and launches the
// background reader goroutine. It corresponds to start_character_input().
func (k *Keyboard) Start() error {
	oldState, err := term.MakeRaw(k.fd)
	if err != nil {
		return err
	}
	k.oldTermState = oldState

	if err := syscall.SetNonblock(k.fd, true); err != nil {
		_ = term.Restore(k.fd, k.oldTermState)
		k.oldTermState = nil
		return err
	}
	k.nonblockSet = true

	k.stopCh = make(chan struct{})
	k.done = make(chan struct{})
	k.stopOnce = sync.Once{}

	go k.readLoop()
	return nil
}

func (k *Keyboard) readLoop() {
	defer close(k.done)
	buf := make([]byte, 1)

	for {
		select {
		case <-k.stopCh:
			return
		default:
		}

		n, err := syscall.Read(k.fd, buf)
		if n > 0 {
			k.mu.Lock()
			k.last = buf[0]
			k.mu.Unlock()
		}

		switch {
		case err == syscall.EAGAIN || err == syscall.EWOULDBLOCK:
			time.Sleep(5 * time.Millisecond)
		case err != nil:
			// Transient read errors are cleared and the loop continues.
			time.Sleep(5 * time.Millisecond)
		case n == 0:
			time.Sleep(5 * time.Millisecond)
		}
	}
}

// Stop closes the reader's stop channel, joins the reader, and
// restores cooked, echoing terminal mode. It corresponds to
// end_character_input() and is guaranteed to have joined the reader
// before returning.
func (k *Keyboard) Stop() error {
	k.stopOnce.Do(func() {
		close(k.stopCh)
	})
	if k.done != nil {
		<-k.done
	}

	var err error
	if k.nonblockSet {
		err = syscall.SetNonblock(k.fd, false)
		k.nonblockSet = false
	}
	if k.oldTermState != nil {
		if restoreErr := term.Restore(k.fd, k.oldTermState); restoreErr != nil && err == nil {
			err = restoreErr
		}
		k.oldTermState = nil
	}
	return err
}

// GetLastChar atomically reads and zeros the latched byte.
func (k *Keyboard) GetLastChar() byte {
	k.mu.Lock()
	defer k.mu.Unlock()
	b := k.last
	k.last = 0
	return b
}

// PeekLastChar atomically reads the latched byte without clearing it.
func (k *Keyboard) PeekLastChar() byte {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.last
}
