package memory

import "testing"

func TestPinZeroRequestIsNoop(t *testing.T) {
	region, err := Pin(0)
	if err != nil {
		t.Fatalf("Pin(0) returned error: %v", err)
	}
	if region.Size() != 0 {
		t.Errorf("Size() = %d, want 0", region.Size())
	}
	if err := region.Unpin(); err != nil {
		t.Errorf("Unpin on a zero-size region returned error: %v", err)
	}
}

func TestPinCapsAtPhysicalMemory(t *testing.T) {
	total := PhysicalMemory()
	if total == 0 {
		t.Skip("could not determine physical memory on this system")
	}

	region, err := Pin(total * 2)
	if err != nil {
		t.Fatalf("Pin returned error: %v", err)
	}
	defer region.Unpin()

	if uint64(region.Size()) >= total {
		t.Errorf("Size() = %d, should have been capped below total physical memory %d", region.Size(), total)
	}
}
