package issuance

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
)

func newTestReconciler(custodianClient *custodianstub.Client, observer *chainstub.Observer) *Reconciler {
	return NewReconciler(custodianClient, observer, nil, nil)
}

func TestSubmitMint(t *testing.T) {
	custodianClient := custodianstub.NewClient()
	custodianClient.Wallets = []custodian.Wallet{{ID: "w1", Name: "Treasury"}}
	custodianClient.Addresses["w1|SETH"] = "0x9999999999999999999999999999999999999999"
	custodianClient.SubmitID = "c9"

	r := newTestReconciler(custodianClient, chainstub.NewObserver())
	ev, err := r.SubmitMint(context.Background(), MintRequest{
		ChainID:         "SETH",
		ContractAddress: testContract,
		Partition:       "Class A",
		ToAddress:       "0x4444444444444444444444444444444444444444",
		Amount:          "50",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ev.TxRef.Kind != model.RefCustodianID || ev.TxRef.Value != "c9" {
		t.Fatalf("event not keyed by custodian id: %+v", ev.TxRef)
	}
	if ev.Amount != "50" || ev.Partition != "Class A" {
		t.Fatalf("event fields mismatch: %+v", ev)
	}
	if len(custodianClient.Submitted) != 1 {
		t.Fatalf("expected one submitted call, got %d", len(custodianClient.Submitted))
	}
	if custodianClient.Submitted[0].ToAddress != testContract {
		t.Fatalf("call destination mismatch: %q", custodianClient.Submitted[0].ToAddress)
	}
}

func TestSubmitMintBadAmount(t *testing.T) {
	custodianClient := custodianstub.NewClient()
	r := newTestReconciler(custodianClient, chainstub.NewObserver())

	_, err := r.SubmitMint(context.Background(), MintRequest{
		ChainID:         "SETH",
		ContractAddress: testContract,
		Partition:       "Class A",
		ToAddress:       "0x4444444444444444444444444444444444444444",
		Amount:          "fifty",
	})
	if err == nil {
		t.Fatalf("expected error for non-decimal amount")
	}
	var mintErr *MintError
	if !errors.As(err, &mintErr) {
		t.Fatalf("expected MintError, got %T", err)
	}
	if len(custodianClient.Submitted) != 0 {
		t.Fatalf("encode failure must not reach the custodian")
	}
}

func TestValidateChainHash(t *testing.T) {
	observer := chainstub.NewObserver()
	observer.Receipts["0xgood"] = chain.Receipt{Success: true}
	observer.Receipts["0xreverted"] = chain.Receipt{Success: false}
	observer.ReceiptErrs["0xflaky"] = fmt.Errorf("dial tcp: connection refused")

	r := newTestReconciler(custodianstub.NewClient(), observer)
	ctx := context.Background()

	valid, err := r.Validate(ctx, model.IssuanceEvent{TxRef: model.ChainHashRef("0xgood"), ChainID: "SETH"})
	if err != nil || !valid {
		t.Fatalf("successful receipt must validate: valid=%v err=%v", valid, err)
	}

	valid, err = r.Validate(ctx, model.IssuanceEvent{TxRef: model.ChainHashRef("0xreverted"), ChainID: "SETH"})
	if err != nil || valid {
		t.Fatalf("reverted receipt must invalidate: valid=%v err=%v", valid, err)
	}

	valid, err = r.Validate(ctx, model.IssuanceEvent{TxRef: model.ChainHashRef("0xmissing"), ChainID: "SETH"})
	if err != nil || valid {
		t.Fatalf("missing transaction must invalidate: valid=%v err=%v", valid, err)
	}

	if _, err = r.Validate(ctx, model.IssuanceEvent{TxRef: model.ChainHashRef("0xflaky"), ChainID: "SETH"}); !errors.Is(err, ErrSkipValidation) {
		t.Fatalf("transport failure must skip, got %v", err)
	}
}

func TestValidateCustodianID(t *testing.T) {
	custodianClient := custodianstub.NewClient()
	custodianClient.Statuses["c-live"] = custodian.TxStatusResult{Status: custodian.StatusBroadcasting}
	custodianClient.Statuses["c-dead"] = custodian.TxStatusResult{Status: custodian.StatusFailed}
	custodianClient.StatusErrs["c-down"] = fmt.Errorf("%w: 503", custodian.ErrUnavailable)

	r := newTestReconciler(custodianClient, chainstub.NewObserver())
	ctx := context.Background()

	valid, err := r.Validate(ctx, model.IssuanceEvent{TxRef: model.CustodianRef("c-live")})
	if err != nil || !valid {
		t.Fatalf("live status must validate: valid=%v err=%v", valid, err)
	}

	valid, err = r.Validate(ctx, model.IssuanceEvent{TxRef: model.CustodianRef("c-dead")})
	if err != nil || valid {
		t.Fatalf("failed status must invalidate: valid=%v err=%v", valid, err)
	}

	valid, err = r.Validate(ctx, model.IssuanceEvent{TxRef: model.CustodianRef("c-unknown")})
	if err != nil || valid {
		t.Fatalf("unknown id must invalidate: valid=%v err=%v", valid, err)
	}

	if _, err = r.Validate(ctx, model.IssuanceEvent{TxRef: model.CustodianRef("c-down")}); !errors.Is(err, ErrSkipValidation) {
		t.Fatalf("unavailable custodian must skip, got %v", err)
	}
}
