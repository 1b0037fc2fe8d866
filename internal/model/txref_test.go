package model

import "testing"

func TestParseTxRefChainHash(t *testing.T) {
	ref, err := ParseTxRef("0xabc123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Kind != RefChainHash {
		t.Fatalf("expected chain hash kind, got %q", ref.Kind)
	}
	if ref.Value != "0xabc123" {
		t.Fatalf("value mismatch: %q", ref.Value)
	}
}

func TestParseTxRefCustodianID(t *testing.T) {
	ref, err := ParseTxRef("4ad84326-39dc-4c54-9f9c-bfeb57b0c2d9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Kind != RefCustodianID {
		t.Fatalf("expected custodian id kind, got %q", ref.Kind)
	}
}

func TestParseTxRefEmpty(t *testing.T) {
	if _, err := ParseTxRef("   "); err == nil {
		t.Fatalf("expected error for empty reference")
	}
}

func TestTxRefIsMock(t *testing.T) {
	if !CustodianRef("mock_tx_id").IsMock() {
		t.Fatalf("mock reference not detected")
	}
	if ChainHashRef("0xabc").IsMock() {
		t.Fatalf("chain hash misdetected as mock")
	}
}

func TestParseDeploymentStatus(t *testing.T) {
	status, err := ParseDeploymentStatus("Deployed")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != StatusDeployed {
		t.Fatalf("status mismatch: %q", status)
	}

	if _, err := ParseDeploymentStatus("confirmed"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}

func TestDeploymentHandle(t *testing.T) {
	d := Deployment{CustodianTxID: "c1"}
	if got := d.Handle(); got.Kind != RefCustodianID || got.Value != "c1" {
		t.Fatalf("expected custodian handle, got %+v", got)
	}

	d.ChainTxHash = "0xabc"
	if got := d.Handle(); got.Kind != RefChainHash || got.Value != "0xabc" {
		t.Fatalf("expected chain handle after re-key, got %+v", got)
	}
}

func TestHasEvent(t *testing.T) {
	led := Ledger{Events: []IssuanceEvent{{TxRef: ChainHashRef("0xabc")}}}
	if !led.HasEvent(ChainHashRef("0xabc")) {
		t.Fatalf("expected event to be found")
	}
	if led.HasEvent(ChainHashRef("0xdef")) {
		t.Fatalf("unexpected event match")
	}
}
