package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"evonet/internal/config"
	"evonet/internal/container"
	"evonet/internal/dump"
	"evonet/internal/network"
	"evonet/internal/nn"
)

func runTouch(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("touch", flag.ContinueOnError)
	kindName := fs.String("kind", container.KindNetwork.String(), "container kind: none|network|partial|full")
	version := fs.Uint("version", uint(container.CurrentVersion), "container format version")
	name := fs.String("name", "", "network name")
	activation := fs.String("activation", nn.DefaultActivation, "network activation function (default: config activation)")
	id := fs.Uint64("id", 0, "network id (0 derives a random id)")
	configPath := fs.String("config", "", "config file (.yaml, .yml or .ini)")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := requireArgs("touch", positional, "<file>"); err != nil {
		return err
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if !isSet(fs, "activation") {
		*activation = cfg.Activation
	}
	kind, err := container.ParseKind(*kindName)
	if err != nil {
		return err
	}
	if *version > 0xFFFF {
		return fmt.Errorf("%w: %d", container.ErrUnsupportedVersion, *version)
	}

	file := container.File{Version: uint16(*version)}
	switch kind {
	case container.KindNone:
		file.Contents = container.Empty{}
	case container.KindNetwork:
		net, err := network.New(network.Options{ID: *id, Name: *name, Activation: *activation})
		if err != nil {
			return err
		}
		file.Contents = container.NetworkContents{Network: net}
	case container.KindPartial:
		file.Contents = container.Partial{}
	case container.KindFull:
		file.Contents = container.Full{}
	}
	if err := container.Write(positional[0], file); err != nil {
		return err
	}

	fmt.Printf("created %s kind=%s version=%d\n", positional[0], kind, file.Version)
	return nil
}

func runDump(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	format := fs.String("format", "text", "output format: text|dot")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := requireArgs("dump", positional, "<file>"); err != nil {
		return err
	}
	if *format != "text" && *format != "dot" {
		return fmt.Errorf("unsupported dump format: %s", *format)
	}
	path := positional[0]

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %w", container.ErrIO, err)
	}
	header, err := container.ReadHeader(path)
	if err != nil {
		return err
	}
	unsupported := header.Kind == container.KindPartial || header.Kind == container.KindFull

	if *format == "dot" {
		if unsupported {
			return fmt.Errorf("%w: %s", container.ErrUnsupportedKind, header.Kind)
		}
		net, err := container.ReadNetwork(path)
		if err != nil {
			return err
		}
		return dump.DOT(os.Stdout, net)
	}

	if err := dump.Header(os.Stdout, path, info.Size(), header); err != nil {
		return err
	}
	if unsupported {
		return nil
	}
	file, err := container.Read(path)
	if err != nil {
		return err
	}
	return dump.Text(os.Stdout, file)
}

func runRun(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	inputsFlag := fs.String("inputs", "", "comma separated input values in input node id order")
	maxDepth := fs.Int("max-depth", network.DefaultMaxDepth, "maximum propagation depth")
	defaultValue := fs.Float64("default", 0, "value for missing inputs")
	noDefaults := fs.Bool("no-defaults", false, "fail instead of filling missing inputs")
	common := addCommonFlags(fs)
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := requireArgs("run", positional, "<file>"); err != nil {
		return err
	}
	cfg, err := common.load(fs)
	if err != nil {
		return err
	}
	if isSet(fs, "max-depth") {
		cfg.MaxDepth = *maxDepth
	}
	logger := common.logger()

	inputs, err := parseFloats(*inputsFlag)
	if err != nil {
		return err
	}
	net, err := container.ReadNetwork(positional[0])
	if err != nil {
		return err
	}

	want := len(net.Inputs())
	if len(inputs) > want {
		logger.Warn("discarding extra inputs", "given", len(inputs), "inputs", want)
		inputs = inputs[:want]
	}
	if len(inputs) < want && !*noDefaults {
		logger.Debug("filling missing inputs", "given", len(inputs), "inputs", want, "default", *defaultValue)
		for len(inputs) < want {
			inputs = append(inputs, float32(*defaultValue))
		}
	}

	outputs, err := net.Run(inputs, cfg.MaxDepth)
	if err != nil {
		return err
	}
	for i, node := range net.Outputs() {
		fmt.Printf("output node=%d value=%s\n", node.ID, strconv.FormatFloat(float64(outputs[i]), 'g', -1, 32))
	}
	return nil
}

func runMutate(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("mutate", flag.ContinueOnError)
	count := fs.Int("count", 1, "number of network mutations to apply")
	seed := fs.Int64("seed", 0, "random seed (default: time based)")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := requireArgs("mutate", positional, "<file>"); err != nil {
		return err
	}
	if *count <= 0 {
		return errors.New("count must be > 0")
	}

	rng := network.DefaultRand()
	if isSet(fs, "seed") {
		rng = network.NewRand(*seed)
	}

	return editNetwork(positional[0], func(net *network.Network) error {
		for i := 0; i < *count; i++ {
			mutation, err := net.Mutate(rng)
			if err != nil {
				return err
			}
			fmt.Printf("mutation %d: %s\n", i+1, mutation)
		}
		return nil
	})
}

func runCreate(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	kindName := fs.String("kind", network.KindTransitional.String(), "node kind: none|transitional|input|output")
	at := fs.Uint64("at", 0, "first id to try when allocating")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := requireArgs("create", positional, "<file>"); err != nil {
		return err
	}
	kind, err := network.ParseKind(*kindName)
	if err != nil {
		return err
	}

	return editNetwork(positional[0], func(net *network.Network) error {
		id := net.CreateAt(kind, network.NodeID(*at))
		fmt.Printf("created node=%d kind=%s\n", id, kind)
		return nil
	})
}

func runRemove(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("remove", flag.ContinueOnError)
	node := fs.Uint64("node", 0, "node id to remove")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := requireArgs("remove", positional, "<file>"); err != nil {
		return err
	}
	if err := requireFlag(fs, "node"); err != nil {
		return err
	}

	return editNetwork(positional[0], func(net *network.Network) error {
		if err := net.Remove(network.NodeID(*node)); err != nil {
			return err
		}
		fmt.Printf("removed node=%d\n", *node)
		return nil
	})
}

func runConnect(_ context.Context, args []string) error {
	return runEdge("connect", args, func(net *network.Network, from, to network.NodeID) error {
		if _, err := net.Connect(from, to); err != nil {
			return err
		}
		fmt.Printf("connected %d -> %d\n", from, to)
		return nil
	})
}

func runUnconnect(_ context.Context, args []string) error {
	return runEdge("unconnect", args, func(net *network.Network, from, to network.NodeID) error {
		if err := net.Unconnect(from, to); err != nil {
			return err
		}
		fmt.Printf("unconnected %d -> %d\n", from, to)
		return nil
	})
}

func runEdge(name string, args []string, edit func(net *network.Network, from, to network.NodeID) error) error {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	from := fs.Uint64("from", 0, "source node id")
	to := fs.Uint64("to", 0, "target node id")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := requireArgs(name, positional, "<file>"); err != nil {
		return err
	}
	for _, flagName := range []string{"from", "to"} {
		if err := requireFlag(fs, flagName); err != nil {
			return err
		}
	}

	return editNetwork(positional[0], func(net *network.Network) error {
		return edit(net, network.NodeID(*from), network.NodeID(*to))
	})
}

func runGet(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	node := fs.String("node", "", "node id (default: the network itself)")
	conn := fs.Int("conn", -1, "connection index on --node")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(positional) != 1 && len(positional) != 2 {
		return fmt.Errorf("get expects <file> [field], got %d argument(s)", len(positional))
	}

	net, err := container.ReadNetwork(positional[0])
	if err != nil {
		return err
	}
	target, err := selectTarget(net, *node, *conn)
	if err != nil {
		return err
	}

	if len(positional) == 2 {
		value, err := target.GetField(positional[1])
		if err != nil {
			return err
		}
		fmt.Println(value)
		return nil
	}
	for _, name := range target.Fields() {
		value, err := target.GetField(name)
		if err != nil {
			return err
		}
		fmt.Printf("%s=%s\n", name, value)
	}
	return nil
}

func runSet(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("set", flag.ContinueOnError)
	node := fs.String("node", "", "node id (default: the network itself)")
	conn := fs.Int("conn", -1, "connection index on --node")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := requireArgs("set", positional, "<file>", "<field>", "<value>"); err != nil {
		return err
	}
	field, value := positional[1], positional[2]

	return editNetwork(positional[0], func(net *network.Network) error {
		target, err := selectTarget(net, *node, *conn)
		if err != nil {
			return err
		}
		if err := target.SetField(field, value); err != nil {
			return err
		}
		fmt.Printf("%s=%s\n", field, value)
		return nil
	})
}

func runActivations(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("activations", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	for _, name := range nn.ListActivations() {
		fmt.Println(name)
	}
	return nil
}

// selectTarget resolves the network, a node, or one of a node's connections.
func selectTarget(net *network.Network, node string, conn int) (network.Reflectable, error) {
	if node == "" {
		if conn >= 0 {
			return nil, errors.New("--conn requires --node")
		}
		return net, nil
	}
	id, err := strconv.ParseUint(node, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: node id %q", network.ErrParse, node)
	}
	if conn >= 0 {
		return net.Connection(network.NodeID(id), conn)
	}
	return net.Node(network.NodeID(id))
}

// editNetwork loads the network at path, applies edit and writes it back.
// Nothing is written when edit fails.
func editNetwork(path string, edit func(net *network.Network) error) error {
	net, err := container.ReadNetwork(path)
	if err != nil {
		return err
	}
	if err := edit(net); err != nil {
		return err
	}
	return container.WriteNetwork(path, net)
}
