package daemon

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPIDFileLifecycle(t *testing.T) {
	pf := NewPIDFile(filepath.Join(t.TempDir(), "test.pid"))

	if err := pf.Write(); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	pid, err := pf.Read()
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if pid != os.Getpid() {
		t.Errorf("Read() = %d, want %d", pid, os.Getpid())
	}

	if err := pf.Remove(); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}

	pid, err = pf.Read()
	if err != nil {
		t.Fatalf("Read() after Remove error: %v", err)
	}
	if pid != 0 {
		t.Errorf("Read() after Remove = %d, want 0", pid)
	}
}

func TestReadMissingFile(t *testing.T) {
	pf := NewPIDFile(filepath.Join(t.TempDir(), "absent.pid"))

	pid, err := pf.Read()
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if pid != 0 {
		t.Errorf("Read() = %d, want 0", pid)
	}
}

func TestReadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.pid")
	if err := os.WriteFile(path, []byte("not-a-pid"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewPIDFile(path).Read(); err == nil {
		t.Error("Read() should reject non-numeric content")
	}
}

func TestAliveDetectsOwnProcess(t *testing.T) {
	pf := NewPIDFile(filepath.Join(t.TempDir(), "self.pid"))
	if err := pf.Write(); err != nil {
		t.Fatal(err)
	}

	running, pid, err := pf.Alive()
	if err != nil {
		t.Fatalf("Alive() error: %v", err)
	}
	if !running || pid != os.Getpid() {
		t.Errorf("Alive() = (%v, %d), want (true, %d)", running, pid, os.Getpid())
	}
}

func TestAliveClearsStaleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stale.pid")
	// Beyond the kernel's default pid_max, so never a live process.
	if err := os.WriteFile(path, []byte("99999999"), 0644); err != nil {
		t.Fatal(err)
	}

	pf := NewPIDFile(path)
	running, _, err := pf.Alive()
	if err != nil {
		t.Fatalf("Alive() error: %v", err)
	}
	if running {
		t.Error("Alive() = true for nonexistent process")
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("stale PID file was not removed")
	}
}

func TestStopWhenNotRunning(t *testing.T) {
	pf := NewPIDFile(filepath.Join(t.TempDir(), "absent.pid"))

	if err := pf.Stop(0); err == nil {
		t.Error("Stop() should fail when no daemon is running")
	}
}
