package api

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"billgen/pkg/models"
)

// Snapshot is a consistent, joined view of bills, customers and services.
// A failed refresh leaves the previous data in place.
type Snapshot struct {
	mu        sync.RWMutex
	bills     []models.Bill
	customers []models.Customer
	services  []models.Service
	index     models.CustomerIndex
	fetchedAt time.Time
}

type collections struct {
	bills     []models.Bill
	customers []models.Customer
	services  []models.Service
}

// FetchAll loads the three collections concurrently and returns once all of
// them have arrived. Any failure fails the whole fetch.
func (c *Client) FetchAll(ctx context.Context) (*Snapshot, error) {
	data, err := c.fetchCollections(ctx)
	if err != nil {
		return nil, err
	}
	s := &Snapshot{}
	s.replace(data)
	return s, nil
}

func (c *Client) fetchCollections(ctx context.Context) (collections, error) {
	var data collections

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		bills, err := c.ListBills(ctx)
		data.bills = bills
		return err
	})
	g.Go(func() error {
		customers, err := c.ListCustomers(ctx)
		data.customers = customers
		return err
	})
	g.Go(func() error {
		services, err := c.ListServices(ctx)
		data.services = services
		return err
	})

	if err := g.Wait(); err != nil {
		return collections{}, err
	}
	return data, nil
}

// Refresh reloads every collection. On error the snapshot is unchanged.
func (s *Snapshot) Refresh(ctx context.Context, c *Client) error {
	data, err := c.fetchCollections(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("Refresh failed, keeping previous data")
		return err
	}
	s.replace(data)
	return nil
}

func (s *Snapshot) replace(data collections) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bills = data.bills
	s.customers = data.customers
	s.services = data.services
	s.index = models.IndexCustomers(data.customers)
	s.fetchedAt = time.Now()
}

// Bills returns the loaded bills.
func (s *Snapshot) Bills() []models.Bill {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Bill(nil), s.bills...)
}

// Customers returns the loaded customers.
func (s *Snapshot) Customers() []models.Customer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Customer(nil), s.customers...)
}

// Services returns the loaded catalog.
func (s *Snapshot) Services() []models.Service {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Service(nil), s.services...)
}

// CustomerIndex returns the customer lookup.
func (s *Snapshot) CustomerIndex() models.CustomerIndex {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

// FetchedAt is the time of the last successful load.
func (s *Snapshot) FetchedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetchedAt
}

// Service finds a catalog entry by id.
func (s *Snapshot) Service(id int64) (models.Service, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, svc := range s.services {
		if svc.ID == id {
			return svc, true
		}
	}
	return models.Service{}, false
}

// Enriched returns the bill with empty customer fields filled from the
// customer lookup.
func (s *Snapshot) Enriched(billID int64) (models.Bill, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.bills {
		if b.ID == billID {
			return b.WithCustomer(s.index.Lookup(b.CustomerID)), true
		}
	}
	return models.Bill{}, false
}

// EnrichedBill fetches one bill and fills its empty customer fields from the
// customer record. A missing customer leaves the bill as stored.
func (c *Client) EnrichedBill(ctx context.Context, id int64) (*models.Bill, error) {
	bill, err := c.GetBill(ctx, id)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, &APIError{Op: "GetBill", StatusCode: 404, Message: "Bill not found"}
	}

	customer, err := c.GetCustomer(ctx, bill.CustomerID)
	if err != nil {
		c.log.Debug().Err(err).Int64("customer_id", bill.CustomerID).Msg("Customer lookup failed, using bill fields")
		return bill, nil
	}
	enriched := bill.WithCustomer(customer)
	return &enriched, nil
}
