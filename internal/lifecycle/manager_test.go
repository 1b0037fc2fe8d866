package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"tokenEngine/internal/chain"
	chainstub "tokenEngine/internal/chain/stub"
	"tokenEngine/internal/custodian"
	custodianstub "tokenEngine/internal/custodian/stub"
	"tokenEngine/internal/model"
	"tokenEngine/internal/token"
)

func newTestManager(custodianClient *custodianstub.Client, observer *chainstub.Observer) *Manager {
	return NewManager(custodianClient, observer, nil, nil)
}

func pendingDeployment() model.Deployment {
	return model.Deployment{
		ChainID:       "SETH",
		Name:          "Test Token",
		Symbol:        "TST",
		Partitions:    []string{"Class A"},
		Kind:          model.KindCustodied,
		Status:        model.StatusPending,
		CustodianTxID: "c1",
	}
}

func TestSubmitCreatesPendingRecord(t *testing.T) {
	custodianClient := custodianstub.NewClient()
	custodianClient.Wallets = []custodian.Wallet{{ID: "w1", Name: "Treasury"}}
	custodianClient.Addresses["w1|SETH"] = "0x9999999999999999999999999999999999999999"
	custodianClient.SubmitID = "c1"

	contractABI, err := token.ERC1400ABI()
	if err != nil {
		t.Fatalf("parse abi: %v", err)
	}
	artifact := &token.Artifact{ABI: contractABI, Bytecode: []byte{0x60, 0x80}}

	m := newTestManager(custodianClient, chainstub.NewObserver())
	d, err := m.Submit(context.Background(), artifact, DeployRequest{
		ChainID:    "SETH",
		Name:       "Test Token",
		Symbol:     "TST",
		Partitions: []string{"Class A"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if d.Status != model.StatusPending {
		t.Fatalf("expected pending status, got %q", d.Status)
	}
	if d.CustodianTxID != "c1" {
		t.Fatalf("custodian tx id mismatch: %q", d.CustodianTxID)
	}
	if d.Owner != "0x9999999999999999999999999999999999999999" {
		t.Fatalf("owner mismatch: %q", d.Owner)
	}
	if len(custodianClient.Submitted) != 1 {
		t.Fatalf("expected one submitted call, got %d", len(custodianClient.Submitted))
	}
	if custodianClient.Submitted[0].ToAddress != "" {
		t.Fatalf("contract creation must have empty destination, got %q", custodianClient.Submitted[0].ToAddress)
	}
}

func TestSubmitRejectsDuplicatePartitions(t *testing.T) {
	m := newTestManager(custodianstub.NewClient(), chainstub.NewObserver())
	_, err := m.Submit(context.Background(), nil, DeployRequest{
		ChainID:    "SETH",
		Name:       "T",
		Symbol:     "T",
		Partitions: []string{"Class A", "Class A"},
	})
	if err == nil {
		t.Fatalf("expected error for duplicate partitions")
	}
	var deployErr *DeployError
	if !errors.As(err, &deployErr) {
		t.Fatalf("expected DeployError, got %T", err)
	}
}

func TestRefreshSuccessResolvesAddress(t *testing.T) {
	custodianClient := custodianstub.NewClient()
	custodianClient.Statuses["c1"] = custodian.TxStatusResult{
		Status:      custodian.StatusSuccess,
		ChainTxHash: "0xabc",
	}
	observer := chainstub.NewObserver()
	observer.Receipts["0xabc"] = chain.Receipt{
		Success:         true,
		ContractAddress: "0x1110000000000000000000000000000000000111",
	}
	observer.Code["0x1110000000000000000000000000000000000111"] = []byte{0x60}

	m := newTestManager(custodianClient, observer)
	d := pendingDeployment()
	if !m.Refresh(context.Background(), &d) {
		t.Fatalf("expected a transition")
	}

	if d.Status != model.StatusDeployed {
		t.Fatalf("expected deployed, got %q", d.Status)
	}
	if d.ChainTxHash != "0xabc" {
		t.Fatalf("chain hash mismatch: %q", d.ChainTxHash)
	}
	if d.ContractAddress != "0x1110000000000000000000000000000000000111" {
		t.Fatalf("contract address mismatch: %q", d.ContractAddress)
	}
	if d.UpdatedAt == "" {
		t.Fatalf("updated timestamp not set")
	}
}

func TestRefreshSuccessWithLaggingReceipt(t *testing.T) {
	custodianClient := custodianstub.NewClient()
	custodianClient.Statuses["c1"] = custodian.TxStatusResult{
		Status:      custodian.StatusSuccess,
		ChainTxHash: "0xabc",
	}
	observer := chainstub.NewObserver()

	m := newTestManager(custodianClient, observer)
	d := pendingDeployment()
	if !m.Refresh(context.Background(), &d) {
		t.Fatalf("expected a transition")
	}
	if d.Status != model.StatusDeployed {
		t.Fatalf("expected deployed even without a receipt, got %q", d.Status)
	}
	if d.ContractAddress != "" {
		t.Fatalf("address should stay empty until the receipt appears")
	}

	// The receipt shows up later; refresh fills the address without
	// touching the status.
	observer.Receipts["0xabc"] = chain.Receipt{
		Success:         true,
		ContractAddress: "0x1110000000000000000000000000000000000111",
	}
	if !m.Refresh(context.Background(), &d) {
		t.Fatalf("expected address resolution")
	}
	if d.Status != model.StatusDeployed {
		t.Fatalf("status changed during resolution: %q", d.Status)
	}
	if d.ContractAddress != "0x1110000000000000000000000000000000000111" {
		t.Fatalf("contract address mismatch: %q", d.ContractAddress)
	}
}

func TestRefreshIdempotentAfterSuccess(t *testing.T) {
	custodianClient := custodianstub.NewClient()
	custodianClient.Statuses["c1"] = custodian.TxStatusResult{
		Status:      custodian.StatusSuccess,
		ChainTxHash: "0xabc",
	}
	observer := chainstub.NewObserver()
	observer.Receipts["0xabc"] = chain.Receipt{Success: true, ContractAddress: "0x1"}

	m := newTestManager(custodianClient, observer)
	d := pendingDeployment()
	if !m.Refresh(context.Background(), &d) {
		t.Fatalf("first refresh must transition")
	}
	if m.Refresh(context.Background(), &d) {
		t.Fatalf("second refresh must be a no-op")
	}
}

func TestRefreshMarksFailed(t *testing.T) {
	custodianClient := custodianstub.NewClient()
	custodianClient.Statuses["c1"] = custodian.TxStatusResult{Status: custodian.StatusFailed}

	m := newTestManager(custodianClient, chainstub.NewObserver())
	d := pendingDeployment()
	if !m.Refresh(context.Background(), &d) {
		t.Fatalf("expected a transition")
	}
	if d.Status != model.StatusFailed {
		t.Fatalf("expected failed, got %q", d.Status)
	}
}

func TestRefreshDetectsDroppedTransaction(t *testing.T) {
	custodianClient := custodianstub.NewClient()
	custodianClient.Statuses["c1"] = custodian.TxStatusResult{
		Status:      custodian.StatusBroadcasting,
		ChainTxHash: "0xdef",
	}
	observer := chainstub.NewObserver()
	observer.Present["0xdef"] = false

	m := newTestManager(custodianClient, observer)
	d := pendingDeployment()
	if !m.Refresh(context.Background(), &d) {
		t.Fatalf("expected a transition")
	}
	if d.Status != model.StatusFailed {
		t.Fatalf("dropped transaction must fail the record, got %q", d.Status)
	}
}

func TestRefreshBroadcastingKeepsInFlight(t *testing.T) {
	custodianClient := custodianstub.NewClient()
	custodianClient.Statuses["c1"] = custodian.TxStatusResult{
		Status:      custodian.StatusBroadcasting,
		ChainTxHash: "0xdef",
	}
	observer := chainstub.NewObserver()
	observer.Present["0xdef"] = true

	m := newTestManager(custodianClient, observer)
	d := pendingDeployment()
	if !m.Refresh(context.Background(), &d) {
		t.Fatalf("expected a transition")
	}
	if d.Status != model.StatusBroadcasting {
		t.Fatalf("expected broadcasting, got %q", d.Status)
	}
	if d.ChainTxHash != "0xdef" {
		t.Fatalf("partial hash not captured: %q", d.ChainTxHash)
	}
}

func TestRefreshUnavailableIsNoOp(t *testing.T) {
	custodianClient := custodianstub.NewClient()
	custodianClient.StatusErrs["c1"] = fmt.Errorf("%w: 503", custodian.ErrUnavailable)

	m := newTestManager(custodianClient, chainstub.NewObserver())
	d := pendingDeployment()
	if m.Refresh(context.Background(), &d) {
		t.Fatalf("unavailable provider must not cause a transition")
	}
	if d.Status != model.StatusPending {
		t.Fatalf("status mutated: %q", d.Status)
	}
}

func TestRefreshSkipsSelfCustody(t *testing.T) {
	m := newTestManager(custodianstub.NewClient(), chainstub.NewObserver())
	d := model.Deployment{
		ChainID: "SETH",
		Kind:    model.KindSelfCustody,
		Status:  model.StatusDeployed,
	}
	if m.Refresh(context.Background(), &d) {
		t.Fatalf("self-custody records must never be refreshed")
	}
}
