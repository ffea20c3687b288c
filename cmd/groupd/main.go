// Command groupd wires a group state machine to the demo transport and
// snapshot cache for manual exercising, with flag-based sub-commands for
// starting a server and sending one-off events to it.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/codership/gcsgroup/group"
	"github.com/codership/gcsgroup/snapshot"
	"github.com/codership/gcsgroup/transport"
)

func runServe(args []string) {
	flagset := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := flagset.String("addr", ":17001", "address to listen on for the demo transport")
	snapshotPath := flagset.String("snapshot", "", "path to a BoltDB snapshot cache file (optional)")
	if err := flagset.Parse(args); err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	log, err := zap.NewDevelopment()
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	defer log.Sync()

	var cache *snapshot.Cache
	if *snapshotPath != "" {
		cache, err = snapshot.Open(*snapshotPath)
		if err != nil {
			log.Fatal("opening snapshot cache", zap.Error(err))
		}
		defer cache.Close()
		if groupUUID, confID, err := cache.Last(); err == nil && confID >= 0 {
			log.Info("last known group", zap.String("group_uuid", groupUUID.String()), zap.Int64("conf_id", confID))
		}
	}

	machine := group.New(log)
	dispatcher := transport.NewDispatcher(machine, log)

	go func() {
		if err := transport.Start(*addr, dispatcher); err != nil {
			log.Fatal("transport failed", zap.Error(err))
		}
	}()
	log.Info("listening", zap.String("addr", *addr))

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c
	log.Info("shutting down")
}

// runEvent sends a single COMPONENT or LAST event to a running groupd
// instance via the demo transport, printing the size of the encoded
// configuration-change action returned for COMPONENT (0 if none), or the
// last-applied value returned for LAST.
func runEvent(args []string) {
	flagset := flag.NewFlagSet("event", flag.ExitOnError)
	addr := flagset.String("addr", ":17001", "address of a running groupd instance")
	if err := flagset.Parse(args); err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	remaining := flagset.Args()
	if len(remaining) < 1 {
		fmt.Println("usage: groupd event -addr <addr> component|last <args...>")
		os.Exit(2)
	}

	peer := transport.NewPeer(*addr)
	switch strings.ToUpper(remaining[0]) {
	case "COMPONENT":
		if len(remaining) < 3 {
			fmt.Println("usage: event component <self_idx> <member,member,...> [non-primary]")
			os.Exit(2)
		}
		selfIdx, err := strconv.Atoi(remaining[1])
		if err != nil {
			fmt.Println(err)
			os.Exit(2)
		}
		members := strings.Split(remaining[2], ",")
		primary := true
		if len(remaining) > 3 && remaining[3] == "non-primary" {
			primary = false
		}
		reply, err := peer.Component(&transport.ComponentArgs{Primary: primary, SelfIdx: selfIdx, Members: members})
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		fmt.Printf("config-change bytes: %d\n", len(reply.Encoded))
	case "LAST":
		if len(remaining) < 3 {
			fmt.Println("usage: event last <sender_idx> <seqno>")
			os.Exit(2)
		}
		senderIdx, _ := strconv.Atoi(remaining[1])
		seqno, _ := strconv.ParseInt(remaining[2], 10, 64)
		newVal, err := peer.Last(&transport.LastArgs{SenderIdx: senderIdx, Seqno: seqno})
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		fmt.Printf("last_applied = %d\n", newVal)
	default:
		fmt.Printf("unknown event kind: %s\n", remaining[0])
		os.Exit(2)
	}
}

func main() {
	args := os.Args[1:]
	if len(args) < 1 {
		fmt.Printf("usage: %s serve | event ...\n", os.Args[0])
		os.Exit(2)
	}
	switch args[0] {
	case "serve":
		runServe(args[1:])
	case "event":
		runEvent(args[1:])
	default:
		fmt.Printf("unknown sub-command: %s\n", args[0])
		os.Exit(2)
	}
}
