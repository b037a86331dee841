package orchestration

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaugeflow/passthrough/model/passthrough"
	"github.com/gaugeflow/passthrough/registry"
	"github.com/gaugeflow/passthrough/registry/errors"
	"github.com/gaugeflow/passthrough/utils/unittest"
)

func runWithDeployer(t *testing.T, f func(d *Deployer, account common.Address, dir string)) {
	unittest.RunWithTempDir(t, func(dir string) {
		account := unittest.AddressFixture()
		env := registry.NewEnvironment(registry.WithLogger(unittest.Logger()))
		audit := NewAuditLog(dir, "arbitrum")
		d := NewDeployer(unittest.Logger(), env, Lookup("arbitrum", "sepolia"), audit, account)
		f(d, account, dir)
	})
}

func TestDeployer(t *testing.T) {
	for _, generation := range []passthrough.Generation{passthrough.GenerationEmbedded, passthrough.GenerationLinked} {
		t.Run(generation.String(), func(t *testing.T) {
			runWithDeployer(t, func(d *Deployer, account common.Address, dir string) {
				guard := unittest.AddressFixture()
				cfg := Config{
					OwnershipAdmin:  account,
					ParameterAdmin:  unittest.AddressFixture(),
					Guards:          []common.Address{guard},
					RewardToken:     unittest.AddressFixture(),
					RewardTokenName: "CRV",
					Gauges: []Gauge{
						{Address: unittest.AddressFixture(), Name: "crvUSD/USDT"},
						{Name: "scrvUSD/crvUSD"},
					},
				}

				blueprint, err := d.DeployBlueprint(unittest.LogicFixture())
				require.NoError(t, err)
				factory, err := d.DeployFactory(generation, blueprint, cfg)
				require.NoError(t, err)

				single, err := d.DeployPassthrough(factory, cfg, []passthrough.RewardReceiver{{Gauge: guard}})
				require.NoError(t, err)

				deployments, err := d.DeployMany(context.Background(), factory, cfg)
				require.NoError(t, err)
				require.Len(t, deployments, 2)
				require.NoError(t, d.Verify(context.Background(), deployments, cfg))

				p, err := d.env.Passthrough(deployments[1].Passthrough)
				require.NoError(t, err)
				assert.Equal(t, "scrvUSD/crvUSD", p.Name())
				assert.Equal(t, common.Address{}, p.SingleRewardReceiver())
				assert.Equal(t, "CRV", p.SingleRewardTokenName())
				assert.Equal(t, generation, p.AdminMode())
				assert.True(t, p.IsGuard(guard))

				info, err := d.FactoryInfo(factory)
				require.NoError(t, err)
				assert.Equal(t, generation, info.Generation)
				assert.Equal(t, blueprint, info.Blueprint)
				assert.Equal(t, account, info.Owner)
				assert.Equal(t, []common.Address{single, deployments[0].Passthrough, deployments[1].Passthrough}, info.Passthroughs)

				content, err := os.ReadFile(filepath.Join(dir, "deploy_factory_many_arbitrum.log"))
				require.NoError(t, err)
				assert.Equal(t, 2, strings.Count(string(content), "Passthrough Contract: "))
				assert.Contains(t, string(content), "Link: https://sepolia.arbiscan.io/address/"+deployments[0].Passthrough.Hex())

				content, err = os.ReadFile(filepath.Join(dir, "deploy_factory_arbitrum.log"))
				require.NoError(t, err)
				assert.Contains(t, string(content), "Max Fee: 0.1 gwei\n")
				assert.Contains(t, string(content), "Owner: "+account.Hex()+"\n")
			})
		})
	}
}

func TestDeployerVerifyDetectsDrift(t *testing.T) {
	runWithDeployer(t, func(d *Deployer, account common.Address, _ string) {
		cfg := Config{
			OwnershipAdmin: account,
			ParameterAdmin: account,
			Gauges:         []Gauge{{Address: unittest.AddressFixture(), Name: "a"}},
		}
		blueprint, err := d.DeployBlueprint(unittest.LogicFixture())
		require.NoError(t, err)
		factory, err := d.DeployFactory(passthrough.GenerationEmbedded, blueprint, cfg)
		require.NoError(t, err)
		deployments, err := d.DeployMany(context.Background(), factory, cfg)
		require.NoError(t, err)

		p, err := d.env.Passthrough(deployments[0].Passthrough)
		require.NoError(t, err)
		require.NoError(t, p.SetName(account, "renamed"))

		err = d.Verify(context.Background(), deployments, cfg)
		require.ErrorContains(t, err, `name is "renamed", expected "a"`)
	})
}

func TestDeployerFactoryAdministration(t *testing.T) {
	runWithDeployer(t, func(d *Deployer, account common.Address, dir string) {
		cfg := Config{OwnershipAdmin: account, ParameterAdmin: account}
		blueprint, err := d.DeployBlueprint(unittest.LogicFixture())
		require.NoError(t, err)
		factory, err := d.DeployFactory(passthrough.GenerationLinked, blueprint, cfg)
		require.NoError(t, err)

		next := unittest.AddressFixture()
		require.NoError(t, d.SetAdmin(factory, "emergency", next))
		require.Error(t, d.SetAdmin(factory, "root", next))
		require.NoError(t, d.SetBlueprint(factory, common.Address{}))
		require.NoError(t, d.TransferOwnership(factory, next))

		// the account no longer owns the factory
		err = d.SetBlueprint(factory, blueprint)
		require.True(t, errors.IsAuthorizationError(err))

		info, err := d.FactoryInfo(factory)
		require.NoError(t, err)
		assert.Equal(t, next, info.EmergencyAdmin)
		assert.Equal(t, next, info.Owner)
		assert.Equal(t, common.Address{}, info.Blueprint)

		content, err := os.ReadFile(filepath.Join(dir, "factory_admin_arbitrum.log"))
		require.NoError(t, err)
		assert.Contains(t, string(content), "Set emergency admin: "+next.Hex())
	})
}

func TestDeployManyStopsOnCancel(t *testing.T) {
	runWithDeployer(t, func(d *Deployer, account common.Address, _ string) {
		cfg := Config{
			OwnershipAdmin: account,
			ParameterAdmin: account,
			Gauges:         []Gauge{{Name: "a"}, {Name: "b"}},
		}
		blueprint, err := d.DeployBlueprint(unittest.LogicFixture())
		require.NoError(t, err)
		factory, err := d.DeployFactory(passthrough.GenerationEmbedded, blueprint, cfg)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		deployments, err := d.DeployMany(ctx, factory, cfg)
		require.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, deployments)
	})
}

func TestDeployManyRecordsFollowUp(t *testing.T) {
	runWithDeployer(t, func(d *Deployer, account common.Address, dir string) {
		gauge := common.HexToAddress(gaugeHex)
		token := common.HexToAddress(guardHex)
		cfg := Config{
			OwnershipAdmin:  account,
			ParameterAdmin:  account,
			RewardToken:     token,
			RewardTokenName: "CRV",
			Gauges:          []Gauge{{Address: gauge, Name: "crvUSD/USDT"}},
		}
		blueprint, err := d.DeployBlueprint(unittest.LogicFixture())
		require.NoError(t, err)
		factory, err := d.DeployFactory(passthrough.GenerationEmbedded, blueprint, cfg)
		require.NoError(t, err)

		deployments, err := d.DeployMany(context.Background(), factory, cfg)
		require.NoError(t, err)
		require.Len(t, deployments, 1)

		args, err := ConstructorArgs(nil, nil, nil)
		require.NoError(t, err)

		address := deployments[0].Passthrough.Hex()
		explorer := "https://sepolia.arbiscan.io/address/"
		rule := strings.Repeat("-", 20)
		expected := strings.Join([]string{
			"Passthrough Contract: " + address,
			"Name: crvUSD/USDT",
			"Reward Receiver/Gauge: " + gauge.Hex(),
			"Reward Token: " + token.Hex(),
			"Reward Token Name: CRV",
			"Gauge Manager: " + common.Address{}.Hex(),
			"Constructor Arguments: " + hexutil.Encode(args),
			"Passthrough Link: " + explorer + address,
			rule,
			"Done with crvUSD/USDT Passthrough",
			rule,
			"Set name: set_name('crvUSD/USDT')",
			"Set reward receiver: set_single_reward_receiver('" + gauge.Hex() + "')",
			"Set single reward token: ",
			"set_single_reward_token('" + token.Hex() + "', 'CRV')",
			"",
			rule,
			"Change this on gauge",
			rule,
			"if coin added the first time: ",
			"add_reward(): " + explorer + gauge.Hex() + "#writeContract#F20",
			"add_reward('" + token.Hex() + "', '" + address + "')",
			"",
			"if coin already added: ",
			"set_reward_distributor(): " + explorer + gauge.Hex() + "#writeContract#F24",
			"set_reward_distributor('" + token.Hex() + "', '" + address + "')",
			"Set manager: set_manager('" + NewGaugeManager.Hex() + "') <-- this is standard for new gauges",
			strings.Repeat("-", 80),
			"",
			"",
		}, "\n")

		content, err := os.ReadFile(filepath.Join(dir, "deploy_factory_many_arbitrum.log"))
		require.NoError(t, err)
		assert.Equal(t, expected, string(content))

		assert.NoFileExists(t, filepath.Join(dir, "deploy_via_factory_arbitrum.log"))
	})

	t.Run("managed gauge needs no handover", func(t *testing.T) {
		runWithDeployer(t, func(d *Deployer, account common.Address, dir string) {
			cfg := Config{
				OwnershipAdmin: account,
				ParameterAdmin: account,
				GaugeManager:   NewGaugeManager,
				Gauges:         []Gauge{{Address: unittest.AddressFixture(), Name: "a"}},
			}
			blueprint, err := d.DeployBlueprint(unittest.LogicFixture())
			require.NoError(t, err)
			factory, err := d.DeployFactory(passthrough.GenerationEmbedded, blueprint, cfg)
			require.NoError(t, err)
			_, err = d.DeployMany(context.Background(), factory, cfg)
			require.NoError(t, err)

			content, err := os.ReadFile(filepath.Join(dir, "deploy_factory_many_arbitrum.log"))
			require.NoError(t, err)
			assert.Contains(t, string(content), "Gauge Manager: "+NewGaugeManager.Hex()+"\n")
			assert.NotContains(t, string(content), "set_manager(")
		})
	})
}

func TestPlanMany(t *testing.T) {
	runWithDeployer(t, func(d *Deployer, account common.Address, dir string) {
		guard := unittest.AddressFixture()
		cfg := Config{
			OwnershipAdmin: account,
			ParameterAdmin: account,
			Guards:         []common.Address{guard},
			Gauges: []Gauge{
				{Address: unittest.AddressFixture(), Name: "a"},
				{Name: "b"},
			},
		}
		blueprint, err := d.DeployBlueprint(unittest.LogicFixture())
		require.NoError(t, err)
		factory, err := d.DeployFactory(passthrough.GenerationLinked, blueprint, cfg)
		require.NoError(t, err)
		before, err := d.env.Journal().Count()
		require.NoError(t, err)

		require.NoError(t, d.PlanMany(context.Background(), cfg))

		// nothing was created or committed
		after, err := d.env.Journal().Count()
		require.NoError(t, err)
		assert.Equal(t, before, after)
		info, err := d.FactoryInfo(factory)
		require.NoError(t, err)
		assert.Empty(t, info.Passthroughs)

		args, err := ConstructorArgs(nil, []common.Address{guard}, nil)
		require.NoError(t, err)

		content, err := os.ReadFile(filepath.Join(dir, "deploy_factory_many_arbitrum.log"))
		require.NoError(t, err)
		assert.Equal(t, 2, strings.Count(string(content), "Passthrough Contract: "+DryRunAddress+"\n"))
		assert.Contains(t, string(content), "Done with b Passthrough\n")
		assert.Contains(t, string(content), "Constructor Arguments: "+hexutil.Encode(args)+"\n")
		assert.Contains(t, string(content), "add_reward('"+common.Address{}.Hex()+"', '"+DryRunAddress+"')\n")
	})

	t.Run("cancelled", func(t *testing.T) {
		runWithDeployer(t, func(d *Deployer, account common.Address, dir string) {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			err := d.PlanMany(ctx, Config{Gauges: []Gauge{{Name: "a"}}})
			require.ErrorIs(t, err, context.Canceled)
			assert.NoFileExists(t, filepath.Join(dir, "deploy_factory_many_arbitrum.log"))
		})
	})
}

func TestDeployPassthroughRecordsConstructorArgs(t *testing.T) {
	runWithDeployer(t, func(d *Deployer, account common.Address, dir string) {
		guard := unittest.AddressFixture()
		gauge := unittest.AddressFixture()
		cfg := Config{OwnershipAdmin: account, ParameterAdmin: account, Guards: []common.Address{guard}}
		blueprint, err := d.DeployBlueprint(unittest.LogicFixture())
		require.NoError(t, err)
		factory, err := d.DeployFactory(passthrough.GenerationEmbedded, blueprint, cfg)
		require.NoError(t, err)

		_, err = d.DeployPassthrough(factory, cfg, []passthrough.RewardReceiver{{Gauge: gauge}})
		require.NoError(t, err)

		args, err := ConstructorArgs([]common.Address{gauge}, []common.Address{guard}, nil)
		require.NoError(t, err)
		content, err := os.ReadFile(filepath.Join(dir, "deploy_via_factory_arbitrum.log"))
		require.NoError(t, err)
		assert.Contains(t, string(content), "Constructor Arguments: "+hexutil.Encode(args)+"\n")
	})
}
