package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"billgen/pkg/models"
)

// fakeBackend is an in-memory stand-in for the REST backend.
type fakeBackend struct {
	mu        sync.Mutex
	customers map[int64]models.Customer
	services  map[int64]models.Service
	bills     map[int64]models.Bill
	order     []int64
	nextID    int64
	requests  atomic.Int64
	failWith  atomic.Int64 // when set, every request answers success:false with this status
}

func newFakeBackend(t *testing.T) (*fakeBackend, *Client) {
	t.Helper()

	fb := &fakeBackend{
		customers: map[int64]models.Customer{},
		services:  map[int64]models.Service{},
		bills:     map[int64]models.Bill{},
		nextID:    100,
	}
	fb.customers[1] = models.Customer{ID: 1, Name: "Nimal Stores", Email: "nimal@example.lk", Phone: "0771234567"}
	fb.services[1] = models.Service{ID: 1, Name: "Logo design", Price: decimal.NewFromInt(500)}
	fb.services[2] = models.Service{ID: 2, Name: "Banner print", Price: decimal.NewFromInt(1500)}

	srv := httptest.NewServer(fb.router())
	t.Cleanup(srv.Close)
	return fb, New(srv.URL+"/api", 0)
}

func (fb *fakeBackend) router() http.Handler {
	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fb.requests.Add(1)
			if status := int(fb.failWith.Load()); status != 0 {
				writeEnvelope(w, status, Envelope[any]{Success: false, Message: "database is locked"})
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/customers", fb.listCustomers).Methods(http.MethodGet)
	api.HandleFunc("/customers", fb.createCustomer).Methods(http.MethodPost)
	api.HandleFunc("/customers/{id}", fb.getCustomer).Methods(http.MethodGet)
	api.HandleFunc("/customers/{id}", fb.deleteCustomer).Methods(http.MethodDelete)
	api.HandleFunc("/services", fb.listServices).Methods(http.MethodGet)
	api.HandleFunc("/bills", fb.listBills).Methods(http.MethodGet)
	api.HandleFunc("/bills", fb.createBill).Methods(http.MethodPost)
	api.HandleFunc("/bills/{id}", fb.getBill).Methods(http.MethodGet)
	api.HandleFunc("/bills/{id}/toggle-paid", fb.togglePaid).Methods(http.MethodPatch)
	return r
}

func writeEnvelope[T any](w http.ResponseWriter, status int, env Envelope[T]) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

func (fb *fakeBackend) listCustomers(w http.ResponseWriter, _ *http.Request) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	out := []models.Customer{}
	for _, c := range fb.customers {
		out = append(out, c)
	}
	writeEnvelope(w, http.StatusOK, Envelope[[]models.Customer]{Success: true, Data: out})
}

func (fb *fakeBackend) getCustomer(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	c, ok := fb.customers[pathID(r)]
	if !ok {
		writeEnvelope(w, http.StatusNotFound, Envelope[any]{Message: "Customer not found"})
		return
	}
	writeEnvelope(w, http.StatusOK, Envelope[models.Customer]{Success: true, Data: c})
}

func (fb *fakeBackend) createCustomer(w http.ResponseWriter, r *http.Request) {
	var in models.Customer
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Name == "" {
		writeEnvelope(w, http.StatusBadRequest, Envelope[any]{Message: "Name is required"})
		return
	}
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.nextID++
	in.ID = fb.nextID
	fb.customers[in.ID] = in
	writeEnvelope(w, http.StatusCreated, Envelope[models.Customer]{Success: true, Data: in, Message: "Customer created successfully"})
}

func (fb *fakeBackend) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	delete(fb.customers, pathID(r))
	writeEnvelope(w, http.StatusOK, Envelope[any]{Success: true, Message: "Customer deleted successfully"})
}

func (fb *fakeBackend) listServices(w http.ResponseWriter, _ *http.Request) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	out := []models.Service{}
	for _, s := range fb.services {
		out = append(out, s)
	}
	writeEnvelope(w, http.StatusOK, Envelope[[]models.Service]{Success: true, Data: out})
}

func (fb *fakeBackend) listBills(w http.ResponseWriter, _ *http.Request) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	out := []models.Bill{}
	for _, id := range fb.order {
		out = append(out, fb.bills[id])
	}
	writeEnvelope(w, http.StatusOK, Envelope[[]models.Bill]{Success: true, Data: out})
}

func (fb *fakeBackend) getBill(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	b, ok := fb.bills[pathID(r)]
	if !ok {
		writeEnvelope(w, http.StatusNotFound, Envelope[any]{Message: "Bill not found"})
		return
	}
	writeEnvelope(w, http.StatusOK, Envelope[models.Bill]{Success: true, Data: b})
}

func (fb *fakeBackend) createBill(w http.ResponseWriter, r *http.Request) {
	var in billRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeEnvelope(w, http.StatusBadRequest, Envelope[any]{Message: err.Error()})
		return
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()

	customer, ok := fb.customers[in.CustomerID]
	if !ok {
		writeEnvelope(w, http.StatusNotFound, Envelope[any]{Message: "Customer not found"})
		return
	}

	date, _ := models.ParseDate(in.Date)
	fb.nextID++
	bill := models.Bill{
		ID:           fb.nextID,
		BillNumber:   fmt.Sprintf("INV-24-%04d", len(fb.order)+1),
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
		Date:         date,
		Total:        decimal.Zero,
	}
	for _, item := range in.Items {
		svc, ok := fb.services[item.ServiceID]
		if !ok {
			writeEnvelope(w, http.StatusNotFound, Envelope[any]{Message: fmt.Sprintf("Service not found (id: %d)", item.ServiceID)})
			return
		}
		price := decimal.RequireFromString(item.UnitPrice.String())
		qty := decimal.NewFromInt(item.Quantity)
		bill.Items = append(bill.Items, models.BillItem{
			ServiceID:   svc.ID,
			ServiceName: svc.Name,
			Quantity:    models.NewNumeric(qty),
			UnitPrice:   models.NewNumeric(price),
			LineTotal:   models.NewNumeric(qty.Mul(price)),
		})
		bill.Total = bill.Total.Add(qty.Mul(price))
	}

	fb.bills[bill.ID] = bill
	fb.order = append(fb.order, bill.ID)
	writeEnvelope(w, http.StatusCreated, Envelope[models.Bill]{Success: true, Data: bill, Message: "Bill created successfully"})
}

func (fb *fakeBackend) togglePaid(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	b, ok := fb.bills[pathID(r)]
	if !ok {
		writeEnvelope(w, http.StatusNotFound, Envelope[any]{Message: "Bill not found"})
		return
	}
	b.IsPaid = !b.IsPaid
	fb.bills[b.ID] = b
	writeEnvelope(w, http.StatusOK, Envelope[models.Bill]{Success: true, Data: b, Message: "Bill marked as paid"})
}
