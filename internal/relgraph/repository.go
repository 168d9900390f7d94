package relgraph

import (
	"context"
	"time"

	"github.com/everleepham/bank-antiscam-app/pkg/common"
	"github.com/everleepham/bank-antiscam-app/pkg/graph"
	"github.com/everleepham/bank-antiscam-app/pkg/models"
)

// TransferEdge is one Account -MADE-> Transaction -TO-> Account step
type TransferEdge struct {
	TransactionID string
	ToAccountID   string
	Timestamp     time.Time
}

// Repository maintains the append-only directed relationship graph of
// Account, Transaction and Device nodes.
type Repository struct {
	client graph.Client
}

// NewRepository creates a new relationship-graph repository
func NewRepository(client graph.Client) *Repository {
	return &Repository{client: client}
}

const (
	ensureAccountCypher = `
		MERGE (a:Account {account_id: $accountID})
		ON CREATE SET a.name = $name, a.score = $score
	`

	ensureTransactionCypher = `
		MERGE (t:Transaction {transaction_id: $transactionID})
		ON CREATE SET t.amount = $amount, t.timestamp = $timestamp, t.status = $status
	`

	ensureDeviceCypher = `
		MERGE (d:Device {device_id: $deviceID})
	`

	linkTransferCypher = `
		MATCH (sender:Account {account_id: $senderID})
		MATCH (recipient:Account {account_id: $recipientID})
		MATCH (t:Transaction {transaction_id: $transactionID})
		MERGE (sender)-[:MADE]->(t)
		MERGE (t)-[:TO]->(recipient)
	`

	linkDeviceCypher = `
		MATCH (a:Account {account_id: $accountID})
		MATCH (d:Device {device_id: $deviceID})
		MERGE (a)-[:USES]->(d)
	`

	counterpartiesCypher = `
		MATCH (a:Account {account_id: $accountID})
		OPTIONAL MATCH (a)-[:MADE]->(:Transaction)-[:TO]->(out:Account)
		OPTIONAL MATCH (in:Account)-[:MADE]->(:Transaction)-[:TO]->(a)
		WITH collect(DISTINCT out.account_id) + collect(DISTINCT in.account_id) AS ids
		UNWIND ids AS id
		WITH id WHERE id IS NOT NULL AND id <> $accountID
		RETURN DISTINCT id AS accountId
	`

	deviceConnectionsCypher = `
		MATCH (a:Account {account_id: $accountID})-[:USES]->(d:Device)
		RETURN d.device_id AS deviceId
	`

	outgoingTransfersCypher = `
		MATCH (a:Account {account_id: $accountID})-[:MADE]->(t:Transaction)-[:TO]->(b:Account)
		RETURN t.transaction_id AS transactionId, b.account_id AS toAccountId, t.timestamp AS timestamp
	`
)

// EnsureAccountNode creates the Account node if it does not exist yet
func (r *Repository) EnsureAccountNode(ctx context.Context, accountID, name string, score int) error {
	_, err := r.client.ExecuteWrite(ctx, ensureAccountCypher, map[string]any{
		"accountID": accountID,
		"name":      name,
		"score":     score,
	})
	if err != nil {
		return common.NewStoreUnavailable("ensure account node", err)
	}
	return nil
}

// EnsureTransactionNode creates the Transaction node if it does not exist yet
func (r *Repository) EnsureTransactionNode(ctx context.Context, txn *models.Transaction) error {
	_, err := r.client.ExecuteWrite(ctx, ensureTransactionCypher, map[string]any{
		"transactionID": txn.ID,
		"amount":        txn.Amount,
		"timestamp":     txn.Timestamp.UTC().Format(time.RFC3339),
		"status":        string(txn.Status),
	})
	if err != nil {
		return common.NewStoreUnavailable("ensure transaction node", err)
	}
	return nil
}

// EnsureDeviceNode creates the Device node if it does not exist yet
func (r *Repository) EnsureDeviceNode(ctx context.Context, deviceID string) error {
	_, err := r.client.ExecuteWrite(ctx, ensureDeviceCypher, map[string]any{
		"deviceID": deviceID,
	})
	if err != nil {
		return common.NewStoreUnavailable("ensure device node", err)
	}
	return nil
}

// LinkTransfer creates the MADE and TO edges for one transaction.
// Edges are created once; re-running the same transaction is a no-op.
func (r *Repository) LinkTransfer(ctx context.Context, senderID, recipientID, transactionID string) error {
	_, err := r.client.ExecuteWrite(ctx, linkTransferCypher, map[string]any{
		"senderID":      senderID,
		"recipientID":   recipientID,
		"transactionID": transactionID,
	})
	if err != nil {
		return common.NewStoreUnavailable("link transfer", err)
	}
	return nil
}

// LinkDevice creates the USES edge between an account and a device
func (r *Repository) LinkDevice(ctx context.Context, accountID, deviceID string) error {
	_, err := r.client.ExecuteWrite(ctx, linkDeviceCypher, map[string]any{
		"accountID": accountID,
		"deviceID":  deviceID,
	})
	if err != nil {
		return common.NewStoreUnavailable("link device", err)
	}
	return nil
}

// Counterparties returns the distinct accounts connected to the given one
// through a transaction on either side.
func (r *Repository) Counterparties(ctx context.Context, accountID string) ([]string, error) {
	res, err := r.client.ExecuteRead(ctx, counterpartiesCypher, map[string]any{
		"accountID": accountID,
	})
	if err != nil {
		return nil, common.NewStoreUnavailable("list counterparties", err)
	}

	ids := make([]string, 0, len(res.Records))
	for _, rec := range res.Records {
		if id := toString(rec["accountId"]); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// DeviceConnections returns the devices reachable from an account via USES
func (r *Repository) DeviceConnections(ctx context.Context, accountID string) ([]string, error) {
	res, err := r.client.ExecuteRead(ctx, deviceConnectionsCypher, map[string]any{
		"accountID": accountID,
	})
	if err != nil {
		return nil, common.NewStoreUnavailable("list device connections", err)
	}

	ids := make([]string, 0, len(res.Records))
	for _, rec := range res.Records {
		if id := toString(rec["deviceId"]); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// OutgoingTransfers returns the adjacency of one account: every transaction
// it made with the recipient account and the transaction timestamp. The
// cycle detector walks the graph one hop at a time through this query
// instead of a variable-length path match, which keeps the search bounded
// in the client rather than in the graph engine.
func (r *Repository) OutgoingTransfers(ctx context.Context, accountID string) ([]TransferEdge, error) {
	res, err := r.client.ExecuteRead(ctx, outgoingTransfersCypher, map[string]any{
		"accountID": accountID,
	})
	if err != nil {
		return nil, common.NewStoreUnavailable("list outgoing transfers", err)
	}

	edges := make([]TransferEdge, 0, len(res.Records))
	for _, rec := range res.Records {
		edge := TransferEdge{
			TransactionID: toString(rec["transactionId"]),
			ToAccountID:   toString(rec["toAccountId"]),
			Timestamp:     toTime(rec["timestamp"]),
		}
		if edge.TransactionID == "" || edge.ToAccountID == "" {
			continue
		}
		edges = append(edges, edge)
	}
	return edges, nil
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func toTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
