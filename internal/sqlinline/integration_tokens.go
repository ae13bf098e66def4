package sqlinline

const QSelectIntegrationToken = `--sql f04de0d9-5099-470d-be7c-e8cd1888e6a3
select token
from integration_tokens
where provider = $1::text
limit 1;
`

const QSelectIntegrationCredentials = `--sql 41c6a0c7-96d0-4a6e-8532-6a3f7d9b02ce
select token, properties
from integration_tokens
where provider = $1::text
limit 1;
`

const QUpsertIntegrationToken = `--sql 95492bd2-2e8a-4222-a51c-e9f0d1e8445b
with incoming as (
    select
        $1::text as provider,
        $2::text as token,
        coalesce($3::jsonb, '{}'::jsonb) as properties
)
insert into integration_tokens (id, provider, token, properties, created_at, updated_at)
values (gen_random_uuid(), (select provider from incoming), (select token from incoming), (select properties from incoming), now(), now())
on conflict (provider) do update set
    token = excluded.token,
    properties = excluded.properties,
    updated_at = now();
`
