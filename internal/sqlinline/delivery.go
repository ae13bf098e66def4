package sqlinline

const QEnqueueDeliveryJob = `--sql d45cf116-9010-4b9e-8a44-e8e1fbfa3ed3
insert into delivery_jobs(
  id,
  tenant_id,
  session_id,
  recipient,
  payload,
  correlation_id,
  status,
  attempt,
  max_attempts,
  run_at,
  created_at,
  updated_at
) values (
  gen_random_uuid(),
  $1::text,
  $2::text,
  $3::text,
  $4::jsonb,
  $5::text,
  'QUEUED',
  0,
  $6::int,
  now(),
  now(),
  now()
) returning id;
`

const QClaimDeliveryJob = `--sql 350f374a-ef02-4407-805e-dcc9b5e0a572
with next_job as (
    select id
    from delivery_jobs
    where status = 'QUEUED'
      and run_at <= now()
    order by run_at asc
    for update skip locked
    limit 1
),
claimed as (
    update delivery_jobs
    set status = 'RUNNING', attempt = attempt + 1, updated_at = now()
    where id in (select id from next_job)
    returning id, tenant_id, session_id, recipient, payload, correlation_id, attempt, max_attempts
)
select * from claimed;
`

const QMarkDeliverySent = `--sql e7bd18fc-c9eb-473b-89bc-acef6623f7dc
update delivery_jobs
set status = 'SENT', last_error = '', updated_at = now()
where id = $1::uuid;
`

const QScheduleDeliveryRetry = `--sql 3063aec7-e154-46c7-a2a6-1766d6f0f394
update delivery_jobs
set status = 'QUEUED',
    run_at = now() + ($2::bigint * interval '1 millisecond'),
    last_error = $3::text,
    updated_at = now()
where id = $1::uuid;
`

const QMarkDeliveryFailed = `--sql d4b2dfec-4db4-4606-bbcd-dbd2f7773c35
update delivery_jobs
set status = 'FAILED', last_error = $2::text, updated_at = now()
where id = $1::uuid;
`

const QRequeueStalledDeliveries = `--sql f58c2440-e1e3-4339-9395-e37164ef58ce
update delivery_jobs
set status = 'QUEUED', updated_at = now()
where status = 'RUNNING'
  and updated_at < now() - ($1::bigint * interval '1 second');
`
