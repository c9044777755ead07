package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/robotalks/genesis.go/pkg/framework"
	"github.com/robotalks/genesis.go/pkg/monitor"
	"github.com/robotalks/genesis.go/pkg/mqtt"
)

var (
	mqttURL    = "mqtt://localhost:1883/genesis/"
	instrument = "+"
	listenAddr string
)

func init() {
	if val := os.Getenv("GENESIS_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&instrument, "id", instrument, "Instrument ID to monitor, + for all.")
	flag.StringVar(&listenAddr, "listen", listenAddr, "Serve traces to websocket clients at this address.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	mon := monitor.New()

	runner := framework.NewRunner().HandleSignals()
	runner.Go(framework.NamedRun("mqtt", framework.RunFunc(func(ctx context.Context) error {
		return framework.RunWithContextCloser(ctx, q, func() error {
			token := q.Connect()
			if token.Wait(); token.Error() != nil {
				return token.Error()
			}
			q.Sub(mqtt.TraceTopicOf(instrument), mon.HandleTrace)
			<-ctx.Done()
			return nil
		})
	})))
	runner.Go(framework.NamedRun("print", framework.RunFunc(func(ctx context.Context) error {
		events, unsub := mon.Subscribe()
		defer unsub()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case ev := <-events:
				log.Println(ev)
			}
		}
	})))
	if listenAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/trace", mon.Handler())
		srv := &http.Server{Addr: listenAddr, Handler: mux}
		runner.Go(framework.NamedRun("websocket", framework.RunFunc(func(ctx context.Context) error {
			err := framework.RunWithContextCloser(ctx, srv, srv.ListenAndServe)
			if err == http.ErrServerClosed {
				return nil
			}
			return err
		})))
	}
	if err := runner.Wait(); err != nil {
		log.Fatalln(err)
	}
}
