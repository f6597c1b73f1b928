/*
Package junction provides an in-process event hub that fans events out from
publishers to receivers.

# Overview

A Junction exists per declared stream. Producers send through a Publisher;
the junction delivers to every subscribed Receiver in one of two modes:

  - Synchronous: receivers are called on the producer's goroutine.
  - Asynchronous: events are copied into a fixed ring of reusable slots and
    each receiver is driven by its own pipeline stage.

The mode is chosen by StartProcessing. A stream is asynchronous when the
application sets Async or its definition carries an @Async annotation with
at least one receiver subscribed.

# Basic Usage

	def := junction.NewStreamDefinition("StockStream", "symbol", "price").
	    Annotate(junction.AnnotationAsync, junction.Element{Key: "buffer.size", Value: "256"})

	j, err := junction.New(def, junction.NewAppContext("trading"))
	if err != nil {
	    log.Fatal(err)
	}
	j.Subscribe(myReceiver)
	j.StartProcessing()
	defer j.StopProcessing()

	pub := j.ConstructPublisher()
	pub.SendData(time.Now().UnixMilli(), []any{"IBM", 75.6})

# Backpressure

The ring never drops events. A producer claiming a slot that some stage has
not consumed yet blocks until the slowest stage catches up. StopProcessing
delivers every published event before returning.

# Faults

A receiver error or panic in asynchronous mode becomes a DeliveryFault handed
to the ExceptionPolicy. The default policy logs and continues; AbortOnFault
halts the pipeline, after which sends return a *PipelineAbortedError.

# Partitioned Receivers

Receivers implementing Partitionable can be cloned per partition key and
stabilized at batch boundaries. See the pattern and partition packages.
*/
package junction
