package engine

import (
	"context"
	"errors"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"tokenEngine/internal/chain"
	chainstub "tokenEngine/internal/chain/stub"
	"tokenEngine/internal/custodian"
	custodianstub "tokenEngine/internal/custodian/stub"
	"tokenEngine/internal/issuance"
	"tokenEngine/internal/ledger"
	"tokenEngine/internal/lifecycle"
	"tokenEngine/internal/model"
	"tokenEngine/internal/token"
)

const (
	testContract = "0x1111111111111111111111111111111111111111"
	testWallet   = "0x9999999999999999999999999999999999999999"
)

type testFixture struct {
	engine    *Engine
	custodian *custodianstub.Client
	observer  *chainstub.Observer
	store     ledger.Store
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()

	custodianClient := custodianstub.NewClient()
	custodianClient.Wallets = []custodian.Wallet{{ID: "w1", Name: "Treasury"}}
	custodianClient.Addresses["w1|SETH"] = testWallet

	observer := chainstub.NewObserver()
	store := ledger.NewFileStore(filepath.Join(t.TempDir(), "ledger.json"), nil)

	contractABI, err := token.ERC1400ABI()
	if err != nil {
		t.Fatalf("parse abi: %v", err)
	}

	eng := New(Options{
		Store:     store,
		Custodian: custodianClient,
		Chain:     observer,
		Artifact:  &token.Artifact{ABI: contractABI, Bytecode: []byte{0x60, 0x80}},
	})
	return &testFixture{engine: eng, custodian: custodianClient, observer: observer, store: store}
}

func TestDeployAndListFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.custodian.SubmitID = "c1"

	record, err := f.engine.RequestDeployment(ctx, lifecycle.DeployRequest{
		ChainID:    "SETH",
		Name:       "Test Token",
		Symbol:     "TST",
		Partitions: []string{"Class A"},
	})
	if err != nil {
		t.Fatalf("deploy: %v", err)
	}
	if record.Status != model.StatusPending {
		t.Fatalf("expected pending, got %q", record.Status)
	}

	// The custodian confirms and the receipt resolves the address.
	f.custodian.Statuses["c1"] = custodian.TxStatusResult{
		Status:      custodian.StatusSuccess,
		ChainTxHash: "0xabc",
	}
	f.observer.Receipts["0xabc"] = chain.Receipt{Success: true, ContractAddress: testContract}
	f.observer.Code[testContract] = []byte{0x60}

	deployments, err := f.engine.ListDeployments(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(deployments) != 1 {
		t.Fatalf("expected one deployment, got %d", len(deployments))
	}
	if deployments[0].Status != model.StatusDeployed || deployments[0].ContractAddress != testContract {
		t.Fatalf("refresh did not converge: %+v", deployments[0])
	}

	// The transition was persisted, not just returned.
	led, err := f.store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if led.Deployments[0].Status != model.StatusDeployed {
		t.Fatalf("transition not persisted: %+v", led.Deployments[0])
	}
}

func TestMintUnknownContract(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.RequestMint(context.Background(), issuance.MintRequest{
		ChainID:         "SETH",
		ContractAddress: testContract,
		Partition:       "Class A",
		ToAddress:       "0x4444444444444444444444444444444444444444",
		Amount:          "50",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(f.custodian.Submitted) != 0 {
		t.Fatalf("unknown contract must not reach the custodian")
	}
}

func TestMintAppendsProvisionalEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.custodian.SubmitID = "c7"

	_, err := f.engine.RegisterSelfCustody(ctx, RegisterRequest{
		ChainID:         "SETH",
		ContractAddress: testContract,
		Name:            "Test Token",
		Symbol:          "TST",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	ev, err := f.engine.RequestMint(ctx, issuance.MintRequest{
		ChainID:         "SETH",
		ContractAddress: testContract,
		Partition:       "Class A",
		ToAddress:       "0x4444444444444444444444444444444444444444",
		Amount:          "50",
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if ev.TxRef.Kind != model.RefCustodianID || ev.TxRef.Value != "c7" {
		t.Fatalf("event not keyed by custodian id: %+v", ev.TxRef)
	}

	led, err := f.store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(led.Events) != 1 {
		t.Fatalf("provisional event not persisted: %d events", len(led.Events))
	}
}

func TestSyncIssuanceDeduplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.engine.RegisterSelfCustody(ctx, RegisterRequest{
		ChainID:         "SETH",
		ContractAddress: testContract,
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	f.observer.Receipts["0xabc"] = chain.Receipt{
		Success: true,
		Logs:    []types.Log{issuanceTestLog(t, common.HexToAddress(testContract), 75)},
	}

	added, err := f.engine.SyncIssuance(ctx, "SETH", testContract, []string{"0xabc"})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if added != 1 {
		t.Fatalf("expected one event added, got %d", added)
	}

	// Replaying the same hash must not duplicate the event.
	added, err = f.engine.SyncIssuance(ctx, "SETH", testContract, []string{"0xabc"})
	if err != nil {
		t.Fatalf("sync again: %v", err)
	}
	if added != 0 {
		t.Fatalf("duplicate reference added: %d", added)
	}

	led, err := f.store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(led.Events) != 1 {
		t.Fatalf("expected exactly one event, got %d", len(led.Events))
	}
}

func TestSyncIssuanceSkipsReplayedMint(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.custodian.SubmitID = "c7"

	if _, err := f.engine.RegisterSelfCustody(ctx, RegisterRequest{
		ChainID:         "SETH",
		ContractAddress: testContract,
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := f.engine.RequestMint(ctx, issuance.MintRequest{
		ChainID:         "SETH",
		ContractAddress: testContract,
		Partition:       "Class A",
		ToAddress:       "0x4444444444444444444444444444444444444444",
		Amount:          "50",
	}); err != nil {
		t.Fatalf("mint: %v", err)
	}

	// The custodian confirms the mint and reports its chain hash; a
	// replay of that hash is the same transaction, not a new event.
	f.custodian.Statuses["c7"] = custodian.TxStatusResult{
		Status:      custodian.StatusSuccess,
		ChainTxHash: "0xabc",
	}
	f.observer.Receipts["0xabc"] = chain.Receipt{
		Success: true,
		Logs:    []types.Log{issuanceTestLog(t, common.HexToAddress(testContract), 50)},
	}

	added, err := f.engine.SyncIssuance(ctx, "SETH", testContract, []string{"0xabc", "c7"})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if added != 0 {
		t.Fatalf("replayed mint was double-counted: %d events added", added)
	}

	balances, err := f.engine.Holders(ctx, "SETH", testContract)
	if err != nil {
		t.Fatalf("holders: %v", err)
	}
	if len(balances) != 1 || balances[0].Balance != "50" {
		t.Fatalf("expected a single 50-token balance, got %+v", balances)
	}

	led, err := f.store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(led.Events) != 1 || led.Events[0].TxRef.Kind != model.RefCustodianID {
		t.Fatalf("mint event must keep its custodian id: %+v", led.Events)
	}
}

func TestRunSweepPersists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.store.SaveEvents(ctx, []model.IssuanceEvent{
		{TxRef: model.CustodianRef("mock_tx_id"), ChainID: "SETH", Amount: "1"},
	}); err != nil {
		t.Fatalf("seed events: %v", err)
	}

	summary, err := f.engine.RunSweep(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if summary.EventsRemoved != 1 {
		t.Fatalf("mock event not removed: %+v", summary)
	}

	led, err := f.store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(led.Events) != 0 {
		t.Fatalf("sweep result not persisted: %d events", len(led.Events))
	}
}

func issuanceTestLog(t *testing.T, contract common.Address, amount int64) types.Log {
	t.Helper()

	contractABI, err := token.ERC1400ABI()
	if err != nil {
		t.Fatalf("parse abi: %v", err)
	}
	event := contractABI.Events["IssuedByPartition"]

	word, err := token.PartitionToBytes32("Class A")
	if err != nil {
		t.Fatalf("partition: %v", err)
	}
	data, err := event.Inputs.NonIndexed().Pack(big.NewInt(amount), []byte{}, []byte{})
	if err != nil {
		t.Fatalf("pack event data: %v", err)
	}

	return types.Log{
		Address: contract,
		Topics: []common.Hash{
			event.ID,
			common.BytesToHash(word[:]),
			common.BytesToHash(common.HexToAddress(testWallet).Bytes()),
			common.BytesToHash(common.HexToAddress("0x4444444444444444444444444444444444444444").Bytes()),
		},
		Data: data,
	}
}
