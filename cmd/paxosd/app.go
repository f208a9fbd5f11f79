package main

import (
	"context"
	"net"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hanzhe-sun/paxosledger/internal/cluster"
	"github.com/hanzhe-sun/paxosledger/internal/config"
	"github.com/hanzhe-sun/paxosledger/internal/ledger"
	"github.com/hanzhe-sun/paxosledger/internal/metrics"
	"github.com/hanzhe-sun/paxosledger/internal/netutil"
	"github.com/hanzhe-sun/paxosledger/internal/paxos"
	"github.com/hanzhe-sun/paxosledger/internal/wire"
)

const (
	acceptIdle = 5 * time.Second
	udpIdle    = 5 * time.Second
)

// app wires one process's four roles together against a loaded topology.
// newApp builds the Acceptor, Proposer and Server first, then the Learner
// and DistinguishedLearner, so the Server can be passed to them directly
// as their LeaderSink.
type app struct {
	logger log.Logger

	acceptor *paxos.Acceptor
	proposer *paxos.Proposer
	dispatch *paxos.LearnerDispatcher
	server   *cluster.Server

	selfServer   wire.Address
	selfAcceptor wire.Address
	selfLearner  wire.Address

	acceptorBacklog int

	stop chan struct{}
}

func newApp(logger log.Logger, topo *config.Topology, serverId, creditWeight int, ledgerSvc ledger.Service, reg *prometheus.Registry) (*app, error) {
	m := topo.ServerConfigurationMap
	if serverId >= len(m.ServerList) {
		return nil, errors.Errorf("serverId %d has no configuration entry", serverId)
	}

	selfServer := m.ServerList[serverId].Address
	selfAcceptor := m.AcceptorList[serverId].Address
	selfLearner := m.LearnerList[serverId].Address
	isDistinguished := m.LearnerList[serverId].IsDistinguishLearner

	acceptors := topo.Acceptors()
	learners := topo.Learners()
	dln := topo.DistinguishedLearners()

	acceptorMetrics := metrics.NewAcceptorMetrics(reg, serverId)
	proposerMetrics := metrics.NewProposerMetrics(reg, serverId)
	serverMetrics := metrics.NewServerMetrics(reg, serverId)

	acceptor := paxos.NewAcceptor(logger, selfAcceptor, dln, acceptorMetrics)
	proposer := paxos.NewProposer(logger, selfServer, acceptors, paxos.DefaultProposerTimeouts(), proposerMetrics)

	srv := cluster.New(logger, selfServer, creditWeight, acceptor, proposer, ledgerSvc, cluster.DefaultTimeouts(), serverMetrics)

	learner := paxos.NewLearner(logger, srv)
	var distinguished *paxos.DistinguishedLearner
	if isDistinguished {
		distinguished = paxos.NewDistinguishedLearner(logger, selfLearner, acceptors, learners, srv)
	}

	dispatch := paxos.NewLearnerDispatcher(learner, distinguished)

	return &app{
		logger:          logger,
		acceptor:        acceptor,
		proposer:        proposer,
		dispatch:        dispatch,
		server:          srv,
		selfServer:      selfServer,
		selfAcceptor:    selfAcceptor,
		selfLearner:     selfLearner,
		acceptorBacklog: topo.AcceptorSocketServerMaxConnections,
		stop:            make(chan struct{}),
	}, nil
}

// Run starts every long-lived loop: the Acceptor TCP listener, the Learner
// UDP listener, the Server TCP listener, the heartbeat loop, and (if no
// leader is known yet) an initial election round, per spec.md §4.5's
// startup rule and §5's concurrency model.
func (a *app) Run(ctx context.Context) {
	go func() {
		err := netutil.ListenLoop(a.logger, a.selfAcceptor, a.acceptorBacklog, acceptIdle, a.stop, a.acceptor.Serve)
		if err != nil {
			a.logger.Log("msg", "acceptor listener failed", "error", err)
		}
	}()

	go func() {
		err := netutil.UDPListenLoop(a.logger, a.selfLearner, udpIdle, a.stop, a.dispatch.Handle)
		if err != nil {
			a.logger.Log("msg", "learner listener failed", "error", err)
		}
	}()

	go func() {
		err := netutil.ListenLoop(a.logger, a.selfServer, a.acceptorBacklog, acceptIdle, a.stop, func(conn net.Conn) {
			a.server.Serve(ctx, conn)
		})
		if err != nil {
			a.logger.Log("msg", "server listener failed", "error", err)
		}
	}()

	go a.server.HeartbeatLoop(ctx)

	if a.server.Leader() == nil {
		go a.server.Propose(ctx)
	}
}

// Stop signals every listener and loop to exit.
func (a *app) Stop() {
	close(a.stop)
	a.server.Stop()
}
