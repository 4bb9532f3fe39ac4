/*
Package ports defines the driven ports (interfaces) of an Arbor editing session.

The diagram engine is an external collaborator. Its capability surface is split
into small interfaces (shape factory, placement, command stack, canvas,
serializer, notifications, translation) so adapters and tests can implement
only what they need. DiagramEngine composes them.

# Key Interfaces

  - DiagramEngine: The full engine surface consumed by the session facade.
  - Downloader: The platform file-save trigger, invoked once per artifact.
  - Notifier: Blocking, user-visible notices.
  - SnapshotStore: Persists session snapshots (memory, Redis).
  - DistributedLocker: Coordinates session access across replicas.
*/
package ports
