package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	cfgpkg "vaultnode/cmd/config"
	"vaultnode/core"
)

func main() {
	rootCmd := &cobra.Command{Use: "vaultnode"}
	rootCmd.PersistentFlags().String("env", "", "config environment to load (e.g. bootstrap)")
	rootCmd.AddCommand(startCmd())
	rootCmd.AddCommand(genesisCmd())
	rootCmd.AddCommand(statusCmd())
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) *logrus.Logger {
	lg := logrus.New()
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	lg.SetLevel(lvl)
	return lg
}

func startCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "start this node and join (or bootstrap) a section",
		Run: func(cmd *cobra.Command, args []string) {
			env, _ := cmd.Flags().GetString("env")
			cfgpkg.LoadConfig(env)
			cfg := cfgpkg.AppConfig
			lg := newLogger(cfg.Logging.Level)
			lg.WithFields(logrus.Fields{
				"root_dir": cfg.Node.RootDir,
				"first":    cfg.Node.First,
			}).Info("vaultnode: starting")

			overlay, err := core.NewLoopbackOverlay()
			if err != nil {
				lg.WithError(err).Fatal("vaultnode: failed to form loopback overlay")
			}
			nodeCfg := core.NodeConfig{
				RootDir:           cfg.Node.RootDir,
				MaxCapacity:       cfg.Node.MaxCapacity,
				ReplicationFactor: cfg.Replication.Factor,
				DedupCapacity:     cfg.Replication.DedupLimit,
			}
			node, err := core.NewNode(nodeCfg, overlay, lg)
			if err != nil {
				lg.WithError(err).Fatal("vaultnode: failed to start node")
			}
			defer node.Audit.Close()

			overlay.Push(core.OverlayEvent{Kind: core.EventMemberJoined})
			if err := node.HandleOverlayEvent(nodeCfg, <-overlay.Events()); err != nil {
				lg.WithError(err).Fatal("vaultnode: failed to level up to adult")
			}
			lg.WithField("role", node.Role.Kind.String()).Info("vaultnode: ready")
			fmt.Println("vaultnode: running as a single-node loopback section; connect a real Overlay for multi-node deployments")
		},
	}
	return cmd
}

func genesisCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "genesis",
		Short: "run the founding two-round genesis handshake as this section's Elder",
		Run: func(cmd *cobra.Command, args []string) {
			env, _ := cmd.Flags().GetString("env")
			cfgpkg.LoadConfig(env)
			cfg := cfgpkg.AppConfig
			lg := newLogger(cfg.Logging.Level)
			lg.WithField("threshold", cfg.Genesis.Threshold).Info("vaultnode: genesis handshake requested")

			overlay, err := core.NewLoopbackOverlay()
			if err != nil {
				lg.WithError(err).Fatal("vaultnode: failed to form loopback overlay")
			}
			nodeCfg := core.NodeConfig{
				RootDir:           cfg.Node.RootDir,
				MaxCapacity:       cfg.Node.MaxCapacity,
				ReplicationFactor: cfg.Replication.Factor,
				DedupCapacity:     cfg.Replication.DedupLimit,
			}
			node, err := core.NewNode(nodeCfg, overlay, lg)
			if err != nil {
				lg.WithError(err).Fatal("vaultnode: failed to start node")
			}
			defer node.Audit.Close()
			overlay.Push(core.OverlayEvent{Kind: core.EventMemberJoined})
			if err := node.HandleOverlayEvent(nodeCfg, <-overlay.Events()); err != nil {
				lg.WithError(err).Fatal("vaultnode: failed to level up to adult")
			}

			sectionWallet, _, err := ed25519.GenerateKey(rand.Reader)
			if err != nil {
				lg.WithError(err).Fatal("vaultnode: failed to derive a section wallet key")
			}
			// Both genesis rounds sign the same deterministic credit, so a
			// one-node section's own share satisfies either round.
			ownShare, err := core.WrapSection(node.Keys, core.GenesisCredit(sectionWallet))
			if err != nil {
				lg.WithError(err).Fatal("vaultnode: failed to sign genesis credit")
			}
			if err := node.RunGenesis(sectionWallet, func() ([][]byte, error) {
				return [][]byte{ownShare.Sig}, nil
			}); err != nil {
				lg.WithError(err).Fatal("vaultnode: genesis handshake failed")
			}
			lg.WithField("role", node.Role.Kind.String()).Info("vaultnode: genesis complete")
			fmt.Println("vaultnode: founding genesis minted for this single-node section")
		},
	}
	return cmd
}

func statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "report this node's configured root dir, capacity and replication factor",
		Run: func(cmd *cobra.Command, args []string) {
			env, _ := cmd.Flags().GetString("env")
			cfgpkg.LoadConfig(env)
			cfg := cfgpkg.AppConfig
			fmt.Printf("root_dir=%s max_capacity=%d replication_factor=%d\n",
				cfg.Node.RootDir, cfg.Node.MaxCapacity, cfg.Replication.Factor)
		},
	}
	return cmd
}
