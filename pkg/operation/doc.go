/*
Package operation drives a full offload run across configured sources.

	+-------------+
	|  Operation  |
	| (Run Loop)  |
	+------+------+
	       |
	+------+------+
	|   Archive   |
	|  (Pipeline) |
	+------+------+

🎯 Purpose:
- Walks the configured sources in order, one at a time
- Hands each source to the archive engine
- Decides which failures skip a source and which stop the run

🔄 Flow:
1. Tag the run with a fresh run id
2. Archive each source through the engine
3. Skip sources whose device cannot be mounted
4. Report the final summary

⚡ Key Responsibilities:
- Sequential, config-order processing
- Mount failure classification
- Run accounting for the summary

🤝 Interfaces:
- Archiver: the move, evict and purge pipeline
- Reporter: console progress and summary rendering
- Config: sources and destination under management

📝 Design Philosophy:
The operator stays deliberately small. It owns ordering and failure
policy, nothing else: filesystem work lives in the archive engine and
mounting lives behind the scope the engine asks for. The only error it
treats specially is a refused mount, which marks a source as absent
rather than broken, because cameras come and go while the config
describes all of them.

🔍 Example:

	op, err := operation.New(operation.Options{
	    Config:   cfg,
	    Archiver: engine,
	    Reporter: reporter,
	})
	if err != nil {
	    return err
	}
	err = op.Run(ctx)
*/
package operation
