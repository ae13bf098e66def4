package sqlinline

const QListProductsForCatalog = `--sql 0ed062c2-d560-4326-90d9-e1cee2e4779a
select
  id,
  tenant_id,
  name,
  description,
  category,
  price_cents,
  currency,
  stock,
  image_url,
  created_at,
  updated_at
from products
where tenant_id = $1::text
  and stock >= $2::int
  and ($3::text = '' or category = $3::text)
order by category asc, name asc
limit $4::int;
`

const QInsertProduct = `--sql 8d85577d-fc09-48ac-bd69-db4a73025cae
insert into products(
  id,
  tenant_id,
  name,
  description,
  category,
  price_cents,
  currency,
  stock,
  image_url,
  created_at,
  updated_at
) values (
  gen_random_uuid(),
  $1::text,
  $2::text,
  $3::text,
  $4::text,
  $5::bigint,
  $6::text,
  $7::int,
  $8::text,
  now(),
  now()
) returning id;
`

const QCountProductsByTenant = `--sql 83fd01c7-4d91-4592-9bbd-7e8ca7b806e4
select count(*)
from products
where tenant_id = $1::text;
`
