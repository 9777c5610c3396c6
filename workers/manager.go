package workers

import (
	"log"
	"sync"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/skyflow-labs/databricks-provisioner/activities"
	"github.com/skyflow-labs/databricks-provisioner/workflows"
)

// WorkerManager starts and stops Temporal workers per task queue. All
// workers register the same workflows and the shared Provisioner activities.
type WorkerManager struct {
	client      client.Client
	provisioner *activities.Provisioner

	workers     map[string]worker.Worker
	workerIDs   map[string]string
	activeCount int
	mu          sync.Mutex
}

func NewWorkerManager(c client.Client, p *activities.Provisioner) *WorkerManager {
	return &WorkerManager{
		client:      c,
		provisioner: p,
		workers:     make(map[string]worker.Worker),
		workerIDs:   make(map[string]string),
	}
}

func (m *WorkerManager) StartWorker(queueName string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.workers[queueName]; exists {
		log.Printf("Worker for queue %s is already running", queueName)
		return
	}

	workerID := uuid.New().String()
	m.workerIDs[queueName] = workerID

	w := worker.New(m.client, queueName, worker.Options{})
	w.RegisterWorkflow(workflows.CreateWorkflow)
	w.RegisterWorkflow(workflows.DestroyWorkflow)
	w.RegisterWorkflow(workflows.RecreateWorkflow)
	w.RegisterWorkflow(workflows.VerifyWorkflow)
	w.RegisterActivity(m.provisioner)

	go func() {
		if err := w.Run(worker.InterruptCh()); err != nil {
			log.Fatalf("Worker for queue %s failed: %v", queueName, err)
		}
	}()

	m.workers[queueName] = w
	m.activeCount++
	log.Printf("Started worker %s for queue %s", workerID, queueName)
}

func (m *WorkerManager) StopWorker(queueName string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if w, exists := m.workers[queueName]; exists {
		w.Stop()
		delete(m.workers, queueName)
		m.activeCount--
		log.Printf("Stopped worker for queue %s", queueName)
	} else {
		log.Printf("Worker for queue %s is not running", queueName)
	}
}

// GetActiveWorkers returns the number of active workers.
func (m *WorkerManager) GetActiveWorkers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeCount
}

// GetWorkerID returns the worker ID for a specific task queue.
func (m *WorkerManager) GetWorkerID(queueName string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.workerIDs[queueName]
}
