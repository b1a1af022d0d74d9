package e2e

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hostplane/hostplane/internal/certs"
	"github.com/hostplane/hostplane/internal/config"
	"github.com/hostplane/hostplane/internal/provisioning"
	"github.com/hostplane/hostplane/internal/state"
	"github.com/hostplane/hostplane/internal/topology"
	"github.com/hostplane/hostplane/internal/verify"
)

// newDeployContext wires a pipeline context against the simulated host.
func newDeployContext(topo *topology.Topology, host *simulatedHost, layout state.Layout) *provisioning.Context {
	prov := certs.NewProvisioner(layout.CertsDir())
	return &provisioning.Context{
		Context:    context.Background(),
		Topology:   topo,
		Layout:     layout,
		State:      provisioning.NewState(),
		Runner:     host,
		Certs:      prov,
		Observer:   quietObserver{},
		BinaryPath: "/usr/local/bin/hostplane",
	}
}

func resolveIntent(intent *config.Intent) *topology.Topology {
	intent.ApplyDefaults()
	topo, err := topology.Resolve(intent)
	Expect(err).NotTo(HaveOccurred())
	return topo
}

var _ = Describe("deploying a LAN-only host", func() {
	var (
		host   *simulatedHost
		layout state.Layout
		pctx   *provisioning.Context
	)

	BeforeEach(func() {
		host = newSimulatedHost()
		layout = tempLayout()
		topo := resolveIntent(&config.Intent{
			Mode:         config.ModeLAN,
			LANSubnet:    "127.0.0.0/8",
			LANServerIP:  "127.0.0.1",
			LANInterface: "lo",
			CertStrategy: config.StrategySelfSigned,
		})
		pctx = newDeployContext(topo, host, layout)
	})

	It("converges to a passing readiness report", func() {
		records, err := provisioning.RunPhases(pctx, provisioning.DefaultPhases())
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(4))

		Expect(pctx.State.Report).NotTo(BeNil())
		Expect(pctx.State.Report.Overall).To(Equal(verify.StatusPass))

		By("installing the vhost, ruleset and units")
		Expect(filepath.Join(layout.NginxDir, "hostplane-lan.conf")).To(BeARegularFile())
		Expect(layout.NftablesPath).To(BeARegularFile())
		Expect(filepath.Join(layout.SystemdDir, "hostplane-app.service")).To(BeARegularFile())

		By("bringing every service up behind the loaded firewall")
		Expect(host.active).To(HaveKeyWithValue("nginx", true))
		Expect(host.active).To(HaveKeyWithValue("fail2ban", true))
		Expect(host.loadedRules).To(ContainSubstring("dport 443"))

		By("persisting deployment state")
		persisted, err := state.Load(layout)
		Expect(err).NotTo(HaveOccurred())
		Expect(persisted.Zones).To(HaveLen(1))
	})

	It("is idempotent: a second run mutates nothing", func() {
		_, err := provisioning.RunPhases(pctx, provisioning.DefaultPhases())
		Expect(err).NotTo(HaveOccurred())

		vhostPath := filepath.Join(layout.NginxDir, "hostplane-lan.conf")
		before, err := os.ReadFile(vhostPath)
		Expect(err).NotTo(HaveOccurred())
		applies := len(host.calledWith("nft -f"))
		reloads := len(host.calledWith("systemctl reload nginx"))

		pctx.State = provisioning.NewState()
		_, err = provisioning.RunPhases(pctx, provisioning.DefaultPhases())
		Expect(err).NotTo(HaveOccurred())

		after, err := os.ReadFile(vhostPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(after).To(Equal(before), "artifacts stay byte-identical")
		Expect(host.calledWith("nft -f")).To(HaveLen(applies), "ruleset not re-applied")
		Expect(host.calledWith("systemctl reload nginx")).To(HaveLen(reloads), "proxy not reloaded")
	})

	It("halts at prerequisites when a required tool is missing", func() {
		host.missingTools["fail2ban-server"] = true

		records, err := provisioning.RunPhases(pctx, provisioning.DefaultPhases())
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("fail2ban-server"))
		Expect(records).To(HaveLen(1))

		Expect(layout.NftablesPath).NotTo(BeAnExistingFile(), "no artifact written before prerequisites pass")
	})
})

var _ = Describe("deploying a hybrid host whose WAN certificate fails", func() {
	var (
		host   *simulatedHost
		layout state.Layout
		pctx   *provisioning.Context
	)

	BeforeEach(func() {
		host = newSimulatedHost()
		layout = tempLayout()
		topo := resolveIntent(&config.Intent{
			Mode:         config.ModeHybrid,
			LANSubnet:    "127.0.0.0/8",
			LANServerIP:  "127.0.0.1",
			LANInterface: "lo",
			WANInterface: "lo",
			Domain:       "app.example.com",
			CertStrategy: config.StrategyACME,
		})
		pctx = newDeployContext(topo, host, layout)
		// Closed port: ACME directory discovery fails immediately.
		pctx.Certs.DirectoryURL = "http://127.0.0.1:1/directory"
	})

	It("keeps the LAN surface functional and reports the WAN failure", func() {
		records, err := provisioning.RunPhases(pctx, provisioning.DefaultPhases())
		Expect(err).NotTo(HaveOccurred(), "a WAN zone failure degrades, it does not halt")
		Expect(records).To(HaveLen(4))

		By("deploying the LAN surface only")
		Expect(filepath.Join(layout.NginxDir, "hostplane-lan.conf")).To(BeARegularFile())
		Expect(filepath.Join(layout.NginxDir, "hostplane-wan.conf")).NotTo(BeAnExistingFile())
		Expect(host.active).To(HaveKeyWithValue("nginx", true))

		By("surfacing the WAN failure in the readiness report")
		Expect(pctx.State.FailedZones).To(HaveKey(topology.ZoneWAN))
		Expect(pctx.State.Report.Failed()).To(BeTrue())

		By("downgrading the LAN certificate to the local CA")
		persisted, err := state.Load(layout)
		Expect(err).NotTo(HaveOccurred())
		Expect(persisted.Zones[0].Strategy).To(Equal(config.StrategyLocalCA))
	})
})

var _ = Describe("re-verifying a deployed host", func() {
	It("fails the certificate check after the certificate disappears", func() {
		host := newSimulatedHost()
		layout := tempLayout()
		topo := resolveIntent(&config.Intent{
			Mode:         config.ModeLAN,
			LANSubnet:    "127.0.0.0/8",
			LANServerIP:  "127.0.0.1",
			LANInterface: "lo",
			CertStrategy: config.StrategySelfSigned,
		})
		pctx := newDeployContext(topo, host, layout)

		_, err := provisioning.RunPhases(pctx, provisioning.DefaultPhases())
		Expect(err).NotTo(HaveOccurred())

		persisted, err := state.Load(layout)
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Remove(persisted.Zones[0].CertPath)).To(Succeed())

		engine := verify.NewEngine(layout.NginxDir, layout.NftablesPath)
		engine.Run = host
		report := engine.Verify(context.Background(), persisted.Topology, persisted.Zones,
			pctx.State.Routes, pctx.State.Rulesets)

		Expect(report.Failed()).To(BeTrue())
	})
})
