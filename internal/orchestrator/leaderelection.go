package orchestrator

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/leaderelection"
	"k8s.io/client-go/tools/leaderelection/resourcelock"
)

// LeaderElectedConfig tunes a LeaderElected orchestrator. One Lease object
// per organization is the intended shape (spec §5: "a single logical
// orchestrator per organization"): give each organization's orchestrator a
// distinct LeaseName so replicas for different organizations never contend
// for the same lock.
type LeaderElectedConfig struct {
	// LeaseName identifies the Lease object, e.g. "sentinel-scheduler-<org>".
	LeaseName string
	// LeaseNamespace is the namespace the Lease lives in.
	LeaseNamespace string
	// Identity uniquely names this replica (hostname or pod name).
	Identity string

	// TickInterval between calls to TickFunc while leading. Defaults to 30s.
	TickInterval time.Duration

	// LeaseDuration is how long a leader's claim is valid without renewal.
	LeaseDuration time.Duration
	// RenewDeadline is how long the leader retries renewal before giving up.
	RenewDeadline time.Duration
	// RetryPeriod is how long followers wait between acquisition attempts.
	RetryPeriod time.Duration

	Client ClientConfig
	Logger *slog.Logger
}

func (c LeaderElectedConfig) withDefaults() LeaderElectedConfig {
	if c.TickInterval <= 0 {
		c.TickInterval = 30 * time.Second
	}
	if c.LeaseDuration <= 0 {
		c.LeaseDuration = 15 * time.Second
	}
	if c.RenewDeadline <= 0 {
		c.RenewDeadline = 10 * time.Second
	}
	if c.RetryPeriod <= 0 {
		c.RetryPeriod = 2 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

func (c LeaderElectedConfig) validate() error {
	if c.LeaseName == "" {
		return NewConfigError("lease name is required", nil)
	}
	if c.LeaseNamespace == "" {
		return NewConfigError("lease namespace is required", nil)
	}
	if c.Identity == "" {
		return NewConfigError("identity is required", nil)
	}
	if c.LeaseDuration <= c.RenewDeadline {
		return NewConfigError("lease duration must exceed renew deadline", nil)
	}
	return nil
}

// LeaderElected is the standard-profile Orchestrator: replicas race for a
// Kubernetes Lease, and only the holder ticks. Losing the lease (network
// partition, pod eviction) stops ticking immediately; another replica picks
// it up within LeaseDuration.
type LeaderElected struct {
	cfg       LeaderElectedConfig
	tick      TickFunc
	clientset kubernetes.Interface
	leading   atomic.Bool
}

// NewLeaderElected builds a LeaderElected orchestrator using an externally
// constructed clientset (tests can supply a fake; production callers should
// use NewLeaderElectedForCluster).
func NewLeaderElected(clientset kubernetes.Interface, tick TickFunc, cfg LeaderElectedConfig) (*LeaderElected, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &LeaderElected{cfg: cfg, tick: tick, clientset: clientset}, nil
}

// NewLeaderElectedForCluster builds a LeaderElected orchestrator, resolving
// its own Kubernetes clientset (in-cluster, or from cfg.Client.Kubeconfig).
func NewLeaderElectedForCluster(tick TickFunc, cfg LeaderElectedConfig) (*LeaderElected, error) {
	clientset, err := newClientset(cfg.Client)
	if err != nil {
		return nil, err
	}
	return NewLeaderElected(clientset, tick, cfg)
}

// Run blocks until ctx is cancelled, participating in leader election and
// ticking on cfg.TickInterval only while holding the lease.
func (o *LeaderElected) Run(ctx context.Context) error {
	lock := &resourcelock.LeaseLock{
		LeaseMeta: metav1.ObjectMeta{
			Name:      o.cfg.LeaseName,
			Namespace: o.cfg.LeaseNamespace,
		},
		Client: o.clientset.CoordinationV1(),
		LockConfig: resourcelock.ResourceLockConfig{
			Identity: o.cfg.Identity,
		},
	}

	leaderelection.RunOrDie(ctx, leaderelection.LeaderElectionConfig{
		Lock:            lock,
		ReleaseOnCancel: true,
		LeaseDuration:   o.cfg.LeaseDuration,
		RenewDeadline:   o.cfg.RenewDeadline,
		RetryPeriod:     o.cfg.RetryPeriod,
		Callbacks: leaderelection.LeaderCallbacks{
			OnStartedLeading: func(leadCtx context.Context) {
				o.leading.Store(true)
				o.cfg.Logger.Info("acquired orchestrator lease",
					"lease", o.cfg.LeaseName, "identity", o.cfg.Identity)
				o.runTicks(leadCtx)
			},
			OnStoppedLeading: func() {
				o.leading.Store(false)
				o.cfg.Logger.Info("lost orchestrator lease",
					"lease", o.cfg.LeaseName, "identity", o.cfg.Identity)
			},
			OnNewLeader: func(identity string) {
				if identity != o.cfg.Identity {
					o.cfg.Logger.Info("orchestrator lease held by peer",
						"lease", o.cfg.LeaseName, "leader", identity)
				}
			},
		},
	})

	return ctx.Err()
}

func (o *LeaderElected) runTicks(ctx context.Context) {
	runTick(ctx, o.cfg.Logger, o.tick)

	ticker := time.NewTicker(o.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runTick(ctx, o.cfg.Logger, o.tick)
		}
	}
}

// IsLeader reports whether this replica currently holds the lease.
func (o *LeaderElected) IsLeader() bool {
	return o.leading.Load()
}

var _ Orchestrator = (*LeaderElected)(nil)
